package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/remem-dev/remem/internal/applog"
	"github.com/remem-dev/remem/internal/config"
	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/search"
	"github.com/remem-dev/remem/internal/store"
)

// rpcRequest and rpcResponse are a minimal JSON-RPC 2.0 subset: one method
// ("search"), newline-delimited on stdin/stdout. spec.md places the MCP
// surface out of scope beyond "a thin adapter", so this intentionally
// skips batching, notifications, and method dispatch tables.
type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type searchParams struct {
	Query   string `json:"query"`
	Cwd     string `json:"cwd"`
	Limit   int    `json:"limit"`
	Project string `json:"project"`
}

// projectKeyCache memoizes projectkey.From(cwd) per working directory,
// invalidated whenever the store's WAL file is written so a long-lived mcp
// process never serves a key computed before the project's data directory
// existed. This is a latency nicety, not a correctness requirement: a
// cache miss just recomputes the (cheap) hash.
type projectKeyCache struct {
	mu   sync.Mutex
	keys map[string]string
}

func newProjectKeyCache() *projectKeyCache {
	return &projectKeyCache{keys: make(map[string]string)}
}

func (c *projectKeyCache) get(cwd string) (string, error) {
	c.mu.Lock()
	if key, ok := c.keys[cwd]; ok {
		c.mu.Unlock()
		return key, nil
	}
	c.mu.Unlock()

	key, err := projectkey.From(cwd)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.keys[cwd] = key
	c.mu.Unlock()
	return key, nil
}

func (c *projectKeyCache) invalidate() {
	c.mu.Lock()
	c.keys = make(map[string]string)
	c.mu.Unlock()
}

// watchWAL clears cache on every write to dataDir/remem.db-wal, logging
// but not failing the command if the watch can't be established (e.g. the
// database hasn't been created yet).
func watchWAL(dataDir string, cache *projectKeyCache) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		applog.Warn("mcp", fmt.Sprintf("wal watch unavailable: %v", err))
		return
	}

	walPath := filepath.Join(dataDir, "remem.db-wal")
	if err := watcher.Add(dataDir); err != nil {
		applog.Warn("mcp", fmt.Sprintf("wal watch unavailable: %v", err))
		_ = watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for event := range watcher.Events {
			if event.Name == walPath && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cache.invalidate()
			}
		}
	}()
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mcp",
		Short:   "Run a stdio JSON-RPC adapter exposing the search method",
		GroupID: groupOps,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := store.OpenReadOnly(config.DataDir())
			if err != nil {
				return fmt.Errorf("remem mcp: open store: %w", err)
			}
			defer s.Close()

			cache := newProjectKeyCache()
			watchWAL(config.DataDir(), cache)

			return serveMCP(ctx, search.New(s), cache, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func serveMCP(ctx context.Context, searcher *search.Searcher, cache *projectKeyCache, in interface{ Read([]byte) (int, error) }, out interface{ Write([]byte) (int, error) }) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		var req rpcRequest
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &req); err != nil {
			_ = encoder.Encode(rpcResponse{Error: fmt.Sprintf("parse request: %v", err)})
			continue
		}

		resp := handleMCPRequest(ctx, searcher, cache, req)
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("remem mcp: write response: %w", err)
		}
	}
	return scanner.Err()
}

func handleMCPRequest(ctx context.Context, searcher *search.Searcher, cache *projectKeyCache, req rpcRequest) rpcResponse {
	if req.Method != "search" {
		return rpcResponse{ID: req.ID, Error: fmt.Sprintf("unknown method %q", req.Method)}
	}

	var params searchParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcResponse{ID: req.ID, Error: fmt.Sprintf("parse params: %v", err)}
	}

	project := params.Project
	if project == "" && params.Cwd != "" {
		key, err := cache.get(params.Cwd)
		if err != nil {
			return rpcResponse{ID: req.ID, Error: fmt.Sprintf("resolve project: %v", err)}
		}
		project = key
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	results, err := searcher.FTS(ctx, search.Query{
		Project: project,
		Text:    params.Query,
		Limit:   int64(limit),
	})
	if err != nil {
		return rpcResponse{ID: req.ID, Error: fmt.Sprintf("search: %v", err)}
	}

	return rpcResponse{ID: req.ID, Result: results}
}
