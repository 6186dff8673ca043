// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package healthcheck reports run progress to a healthchecks.io compatible
// ping URL
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvelt/pkginfo"
)

var ErrStatus = errors.New("status code is invalid")

type Signal string

const (
	Start   Signal = "start"
	Success Signal = ""
	Fail    Signal = "fail"
)

type Pinger struct {
	client  *resty.Client
	pingURL string
}

// New returns a pinger for pingURL. An empty URL yields a pinger that does
// nothing.
func New(pingURL string) *Pinger {
	client := resty.New().
		SetHeader("User-Agent", pkginfo.ShortVersion()).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)

	return &Pinger{client: client, pingURL: strings.TrimSuffix(pingURL, "/")}
}

func (p *Pinger) Enabled() bool {
	return p.pingURL != ""
}

// Ping sends signal with body as the request payload, which healthchecks.io
// shows next to the event
func (p *Pinger) Ping(ctx context.Context, signal Signal, body string) error {
	if !p.Enabled() {
		return nil
	}

	url := p.pingURL
	if signal != Success {
		url = fmt.Sprintf("%s/%s", p.pingURL, signal)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(url)
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
