// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package fetch

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/gitprotocolio"
	"github.com/mergekit/rebase-engine/debug"
)

// FetchFullPackfile fetches a packfile with every object reachable from
// wantOids that isn't already reachable from haveOids - commits, trees
// and blobs alike. Unlike FetchBlobNonePackfile/FetchCommitOnlyPackfile
// this applies no filter, since a rebase needs full tree and blob
// content to merge, not just the commit graph.
func FetchFullPackfile(ctx context.Context, repoURL string, client *http.Client, wantOids, haveOids []plumbing.Hash) ([]byte, debug.FetchDebugInfo, error) {
	return fetchPackfile(ctx, repoURL, client, createFullFetchRequest(wantOids, haveOids))
}

func createFullFetchRequest(wantOids, haveOids []plumbing.Hash) []byte {
	chunks := []*gitprotocolio.ProtocolV2RequestChunk{
		{
			Command: "fetch",
		},
		{
			EndCapability: true,
		},
	}
	for _, oid := range wantOids {
		chunks = append(chunks, &gitprotocolio.ProtocolV2RequestChunk{
			Argument: []byte("want " + oid.String()),
		})
	}
	for _, oid := range haveOids {
		chunks = append(chunks, &gitprotocolio.ProtocolV2RequestChunk{
			Argument: []byte("have " + oid.String()),
		})
	}
	chunks = append(chunks,
		&gitprotocolio.ProtocolV2RequestChunk{
			Argument: []byte("no-progress"),
		},
		&gitprotocolio.ProtocolV2RequestChunk{
			Argument: []byte("done"),
		},
		&gitprotocolio.ProtocolV2RequestChunk{
			EndArgument: true,
		},
		&gitprotocolio.ProtocolV2RequestChunk{
			EndRequest: true,
		},
	)
	bs := bytes.NewBuffer(nil)
	for _, chunk := range chunks {
		bs.Write(chunk.EncodeToPktLine())
	}
	return bs.Bytes()
}
