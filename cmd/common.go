// Copyright 2024 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"net/http"
)

var (
	authzHeader        string
	basicAuthzUser     string
	basicAuthzPassword string
)

type authnRoundtripper struct{}

func (rt *authnRoundtripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if authzHeader != "" {
		req.Header.Set("Authorization", authzHeader)
	} else if basicAuthzUser != "" && basicAuthzPassword != "" {
		req.SetBasicAuth(basicAuthzUser, basicAuthzPassword)
	}
	return http.DefaultTransport.RoundTrip(req)
}
