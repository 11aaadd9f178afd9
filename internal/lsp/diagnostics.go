package lsp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"elmdiag/internal/checker"
	"elmdiag/internal/diag"
	"elmdiag/internal/logging"
)

const toolUnavailableNotice = "elm executable not found: install Elm or set elmdiag.elmPath to enable diagnostics"

// scheduleCheck starts an independent elm make run for uri. Earlier runs keep
// going; their results are published unless a newer run already was.
func (s *Server) scheduleCheck(uri string) {
	path := diag.URIToPath(uri)
	if path == "" {
		return
	}
	s.mu.Lock()
	s.checkSeq[uri]++
	seq := s.checkSeq[uri]
	root := checkRootFor(s.workspaceRoot, path)
	tool := s.elmPath
	ctx := s.baseCtx
	s.mu.Unlock()

	s.checks.Add(1)
	go func() {
		defer s.checks.Done()
		s.runCheck(ctx, uri, path, root, tool, seq)
	}()
}

func (s *Server) runCheck(ctx context.Context, uri, path, root, tool string, seq uint64) {
	c := checker.New(s.newInvoker(tool, root), checker.Options{
		WorkspaceRoot:     root,
		Logger:            s.logger,
		OnToolUnavailable: s.notifyToolUnavailable,
	})
	groups, err := c.Check(ctx, path)
	if err != nil {
		s.logger.Error("check failed", logging.FieldURI, uri, logging.FieldError, err)
		s.showMessage(messageError, fmt.Sprintf("elmdiag: checking %s failed: %v", filepath.Base(path), err))
		return
	}
	s.publishGroups(uri, seq, groups)
}

func (s *Server) notifyToolUnavailable(error) {
	s.toolNotice.Do(func() {
		s.showMessage(messageInfo, toolUnavailableNotice)
	})
}

// publishGroups sends every group reported by the check of trigger and
// clears URIs the previous check of trigger reported but this one did not.
func (s *Server) publishGroups(trigger string, seq uint64, groups []diag.FileGroup) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.mu.Lock()
	if seq <= s.appliedSeq[trigger] {
		s.mu.Unlock()
		s.logger.Debug("dropping superseded result", logging.FieldURI, trigger)
		return
	}
	s.appliedSeq[trigger] = seq
	prev := s.published[trigger]
	next := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		next[g.URI] = struct{}{}
	}
	s.published[trigger] = next
	stale := s.unheldLocked(prev, next)
	s.mu.Unlock()

	for _, g := range groups {
		if err := s.sendPublish(g.URI, g.Diagnostics); err != nil {
			s.logger.Error("failed to publish diagnostics", logging.FieldURI, g.URI, logging.FieldError, err)
		}
	}
	s.clearURIs(stale)
	s.logger.Debug("published",
		logging.FieldURI, trigger,
		logging.FieldGroups, len(groups),
		"cleared", len(stale),
	)
}

// unheldLocked returns the URIs of prev that are neither in keep nor
// published by any document's latest check. Caller holds s.mu.
func (s *Server) unheldLocked(prev, keep map[string]struct{}) []string {
	var out []string
	for uri := range prev {
		if _, ok := keep[uri]; ok {
			continue
		}
		held := false
		for _, set := range s.published {
			if _, ok := set[uri]; ok {
				held = true
				break
			}
		}
		if !held {
			out = append(out, uri)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Server) clearURIs(uris []string) {
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logger.Error("failed to clear diagnostics", logging.FieldURI, uri, logging.FieldError, err)
		}
	}
}

func (s *Server) clearAllPublished() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.mu.Lock()
	all := make(map[string]struct{})
	for trigger, set := range s.published {
		for uri := range set {
			all[uri] = struct{}{}
		}
		s.appliedSeq[trigger] = s.checkSeq[trigger]
	}
	s.published = make(map[string]map[string]struct{})
	uris := make([]string, 0, len(all))
	for uri := range all {
		uris = append(uris, uri)
	}
	s.mu.Unlock()
	sort.Strings(uris)
	s.clearURIs(uris)
}
