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

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvelt/config"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/pkginfo"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
)

type FundamentusClient struct {
	client *resty.Client
	url    string
}

func NewFundamentusClient(conf config.FundamentusConfig) *FundamentusClient {
	client := resty.New().
		SetHeader("User-Agent", pkginfo.ShortVersion()).
		SetHeader("Accept", "text/html").
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)

	return &FundamentusClient{client: client, url: conf.URL}
}

// Resultado downloads the screener page and returns its table rows
func (f *FundamentusClient) Resultado(ctx context.Context, asOf time.Time) ([]data.RawFundamental, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		log.Error().Err(err).Str("URL", f.url).Msg("resty returned an error when querying screener")
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("URL", f.url).Msg("received an invalid status code when querying screener")
		return nil, fmt.Errorf("%w (%d)", ErrInvalidStatusCode, resp.StatusCode())
	}

	body := resp.Body()
	if !utf8.Valid(body) {
		// the site serves latin-1
		body, err = charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return nil, err
		}
	}

	rows, err := ParseResultado(bytes.NewReader(body), asOf)
	if err != nil {
		return nil, err
	}

	log.Info().Int("NumRows", len(rows)).Msg("screener downloaded")
	return rows, nil
}

// ParseResultado reads the first HTML table of r. Column labels are matched
// by their normalized form so accents and punctuation changes do not matter.
func ParseResultado(r io.Reader, asOf time.Time) ([]data.RawFundamental, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, fmt.Errorf("%w: no table in screener page", ErrUnexpectedResponse)
	}

	var headers []string
	for _, th := range findAll(table, atom.Th) {
		headers = append(headers, textContent(th))
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: screener table has no header", ErrUnexpectedResponse)
	}

	extracted := asOf.Format(data.DateLayout)
	reported := make(map[string]bool)
	rows := make([]data.RawFundamental, 0, 1000)

	for _, tr := range findAll(table, atom.Tr) {
		cells := findAll(tr, atom.Td)
		if len(cells) == 0 {
			continue
		}

		if len(cells) != len(headers) {
			log.Warn().Int("NumCells", len(cells)).Int("NumHeaders", len(headers)).Msg("skipping screener row with unexpected width")
			continue
		}

		values := make(map[string]string, len(headers))
		for idx, cell := range cells {
			values[headers[idx]] = textContent(cell)
		}

		rec, unknown := data.FundamentalFromColumns(values)
		for _, label := range unknown {
			if !reported[label] {
				log.Warn().Str("Column", label).Msg("ignoring unknown screener column")
				reported[label] = true
			}
		}

		rec.ExtractedDate = extracted
		rows = append(rows, rec)
	}

	return rows, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}

	return nil
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			found = append(found, c)
			continue
		}
		found = append(found, findAll(c, a)...)
	}
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(sb.String()), " ")
}
