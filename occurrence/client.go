/*
Copyright © 2019 the InMAP authors.
This file is part of rastermask.

rastermask is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rastermask is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rastermask.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package occurrence fetches and cleans species occurrence records and
// joins them with trait tables, for use as presence layers and reports
// alongside siting maps.
package occurrence

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// KeyEnv is the environment variable that holds the occurrence API key.
const KeyEnv = "RASTERMASK_OCCURRENCE_KEY"

// Record is a single species occurrence. Missing coordinates are NaN.
type Record struct {
	ID       string
	Species  string
	Category string
	Group    string
	Lon, Lat float64
}

type rawRecord struct {
	ID       recordID `json:"id"`
	Species  string   `json:"species"`
	Category string   `json:"category"`
	Group    string   `json:"group"`
	Lon      *float64 `json:"decimalLongitude"`
	Lat      *float64 `json:"decimalLatitude"`
}

// recordID accepts identifiers encoded as either JSON strings or numbers.
type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*id = recordID(b)
	return nil
}

func (r rawRecord) record() Record {
	o := Record{
		ID:       string(r.ID),
		Species:  r.Species,
		Category: r.Category,
		Group:    r.Group,
		Lon:      math.NaN(),
		Lat:      math.NaN(),
	}
	if r.Lon != nil {
		o.Lon = *r.Lon
	}
	if r.Lat != nil {
		o.Lat = *r.Lat
	}
	return o
}

// page is one response from the occurrence API.
type page struct {
	Offset       int         `json:"offset"`
	Limit        int         `json:"limit"`
	EndOfRecords bool        `json:"endOfRecords"`
	Results      []rawRecord `json:"results"`
}

// Client retrieves occurrence records from a paged JSON API.
type Client struct {
	// BaseURL is the address of the search endpoint.
	BaseURL string

	// Key is sent with every request as the "token" query parameter.
	Key string

	// PageSize is the number of records requested per page.
	PageSize int

	// MaxPages limits the number of pages retrieved. Zero means no limit.
	MaxPages int

	HTTPClient *http.Client

	// NewBackOff returns the retry policy used for each page.
	NewBackOff func() backoff.BackOff

	Log logrus.FieldLogger
}

// NewClient returns a client for the API at baseURL, with the API key
// read from the KeyEnv environment variable.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Key:        os.Getenv(KeyEnv),
		PageSize:   300,
		HTTPClient: http.DefaultClient,
		NewBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithMaxRetries(b, 8)
}

func (c *Client) log() logrus.FieldLogger {
	if c.Log == nil {
		l := logrus.New()
		l.Out = os.Stderr
		return l
	}
	return c.Log
}

// Fetch retrieves all records matching query, one page at a time.
// Requests that fail in transport or with a 5xx status are retried with
// exponential backoff; other failures are returned immediately.
func (c *Client) Fetch(ctx context.Context, query url.Values) ([]Record, error) {
	if c.Key == "" {
		return nil, fmt.Errorf("occurrence: missing API key; set %s", KeyEnv)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("occurrence: parsing URL: %v", err)
	}
	limit := c.PageSize
	if limit <= 0 {
		limit = 300
	}
	var records []Record
	for pageNum, offset := 0, 0; c.MaxPages <= 0 || pageNum < c.MaxPages; pageNum++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(limit))
		q.Set("token", c.Key)
		u := *base
		u.RawQuery = q.Encode()

		p, err := c.fetchPage(ctx, &u)
		if err != nil {
			return nil, err
		}
		for _, r := range p.Results {
			records = append(records, r.record())
		}
		c.log().WithFields(logrus.Fields{
			"offset":  offset,
			"records": len(p.Results),
		}).Debug("retrieved occurrence page")
		if p.EndOfRecords || len(p.Results) == 0 {
			break
		}
		offset += len(p.Results)
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, u *url.URL) (*page, error) {
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	newBackOff := c.NewBackOff
	if newBackOff == nil {
		newBackOff = defaultBackOff
	}
	// The key is left out of log messages.
	logURL := u.Scheme + "://" + u.Host + u.Path

	var p *page
	op := func() error {
		req, err := http.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := hc.Do(req.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("occurrence: requesting %s: %v", logURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("occurrence: requesting %s: %s", logURL, resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("occurrence: requesting %s: %s", logURL, resp.Status))
		}
		p = new(page)
		if err := json.NewDecoder(resp.Body).Decode(p); err != nil {
			return backoff.Permanent(fmt.Errorf("occurrence: decoding response from %s: %v", logURL, err))
		}
		return nil
	}
	err := backoff.RetryNotify(op, backoff.WithContext(newBackOff(), ctx),
		func(err error, d time.Duration) {
			c.log().Warnf("%v: retrying in %v", err, d)
		})
	if err != nil {
		return nil, err
	}
	return p, nil
}
