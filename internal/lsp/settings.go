package lsp

import (
	"encoding/json"
	"strings"

	"elmdiag/internal/logging"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings accepts {"elmdiag": {"elmPath": "..."}}. The new path applies
// to checks started afterwards.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn("ignoring settings", logging.FieldError, err)
		return
	}
	if settings.Elmdiag.ElmPath == nil {
		return
	}
	path := strings.TrimSpace(*settings.Elmdiag.ElmPath)
	s.mu.Lock()
	s.elmPath = path
	s.mu.Unlock()
	s.logger.Info("elm path updated", logging.FieldTool, path)
}

func (s *Server) currentElmPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elmPath
}
