// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loki ships log lines to a Grafana Loki instance over its JSON
// push API. Loki implements zerolog.LevelWriter so it can sit behind a
// MultiLevelWriter next to the console output; lines are batched by level
// and flushed on size, on a timer, and on Close.
package loki

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	pushPath     = "/loki/api/v1/push"
	maxErrMsgLen = 1024
)

type logLine struct {
	level zerolog.Level
	raw   []byte
	when  time.Time
}

type stream struct {
	Labels map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type pushRequest struct {
	Streams []*stream `json:"streams"`
}

type Loki struct {
	LokiURL   string
	BatchWait time.Duration
	BatchSize int

	execEnv  string
	data     map[string]string
	lineChan chan logLine
	wg       sync.WaitGroup
}

func New(lokiURL string, batchSize, batchWait int) (*Loki, error) {
	l := &Loki{
		LokiURL:   lokiURL,
		BatchSize: batchSize,
		BatchWait: time.Duration(batchWait) * time.Second,
		data:      make(map[string]string),
		lineChan:  make(chan logLine, 1024),
	}

	if execEnv, ok := os.LookupEnv("EXECUTION_ENVIRONMENT"); ok {
		l.execEnv = execEnv
	} else {
		l.execEnv = "test"
	}

	u, err := url.Parse(l.LokiURL)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(u.Path, pushPath) {
		u.Path = pushPath
		q := u.Query()
		u.RawQuery = q.Encode()
		l.LokiURL = u.String()
	}

	l.wg.Add(1)
	go l.run()
	return l, nil
}

func (l *Loki) Close() {
	close(l.lineChan)
	l.wg.Wait()
}

// AddData attaches an extra label to every stream pushed from here on.
func (l *Loki) AddData(key, value string) {
	l.data[key] = value
}

func (l *Loki) Write(p []byte) (int, error) {
	return l.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel queues one log line. The logger must never block on a slow
// Loki endpoint, so the line is dropped when the queue is full.
func (l *Loki) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	raw := make([]byte, len(p))
	copy(raw, p)

	select {
	case l.lineChan <- logLine{level: level, raw: raw, when: time.Now()}:
	default:
	}
	return len(p), nil
}

func (l *Loki) labelsFor(level zerolog.Level) (string, map[string]string) {
	labels := map[string]string{
		"level": level.String(),
		"env":   l.execEnv,
	}
	for key, value := range l.data {
		labels[key] = value
	}

	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fp := strings.Builder{}
	for _, key := range keys {
		fp.WriteString(key)
		fp.WriteByte('=')
		fp.WriteString(labels[key])
		fp.WriteByte(',')
	}
	return fp.String(), labels
}

func (l *Loki) run() {
	var (
		curPktTime  time.Time
		lastPktTime time.Time
		maxWait     = time.NewTimer(l.BatchWait)
		batch       = map[string]*stream{}
		batchSize   = 0
	)
	defer l.wg.Done()

	defer func() {
		if err := l.sendBatch(batch); err != nil {
			fmt.Fprintf(os.Stderr, "%v ERROR: loki flush: %v\n", time.Now(), err)
		}
	}()

	for {
		select {
		case line, ok := <-l.lineChan:
			if !ok {
				return
			}
			curPktTime = line.when
			// guard against entry out of order errors
			if lastPktTime.After(curPktTime) {
				curPktTime = time.Now()
			}
			lastPktTime = curPktTime

			if batchSize+len(line.raw) > l.BatchSize {
				if err := l.sendBatch(batch); err != nil {
					fmt.Fprintf(os.Stderr, "%v ERROR: send size batch: %v\n", lastPktTime, err)
				}
				batchSize = 0
				batch = map[string]*stream{}
				maxWait.Reset(l.BatchWait)
			}

			batchSize += len(line.raw)
			fp, labels := l.labelsFor(line.level)
			st, ok := batch[fp]
			if !ok {
				st = &stream{Labels: labels}
				batch[fp] = st
			}
			st.Values = append(st.Values, [2]string{
				strconv.FormatInt(curPktTime.UnixNano(), 10),
				string(bytes.TrimRight(line.raw, "\n")),
			})

		case <-maxWait.C:
			if len(batch) > 0 {
				if err := l.sendBatch(batch); err != nil {
					fmt.Fprintf(os.Stderr, "%v ERROR: send time batch: %v\n", lastPktTime, err)
				}
				batchSize = 0
				batch = map[string]*stream{}
			}
			maxWait.Reset(l.BatchWait)
		}
	}
}

func (l *Loki) sendBatch(batch map[string]*stream) error {
	if len(batch) == 0 {
		return nil
	}

	buf, err := encodeBatch(batch)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = l.send(ctx, buf)
	return err
}

func encodeBatch(batch map[string]*stream) ([]byte, error) {
	req := pushRequest{
		Streams: make([]*stream, 0, len(batch)),
	}
	for _, st := range batch {
		req.Streams = append(req.Streams, st)
	}
	return json.Marshal(&req)
}

func (l *Loki) send(ctx context.Context, buf []byte) (int, error) {
	req, err := http.NewRequest("POST", l.LokiURL, bytes.NewReader(buf))
	if err != nil {
		return -1, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxErrMsgLen))
		line := ""
		if scanner.Scan() {
			line = scanner.Text()
		}
		err = fmt.Errorf("server returned HTTP status %s (%d): %s", resp.Status, resp.StatusCode, line)
	}
	return resp.StatusCode, err
}
