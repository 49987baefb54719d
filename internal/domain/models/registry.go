// Package models holds the catalog of simulated models: context windows,
// output limits, capabilities, and release metadata served by the /models
// endpoints.
package models

import (
	"sort"
	"strings"
	"sync"
)

// ModelInfo describes one simulated model.
type ModelInfo struct {
	ID              string
	Owner           string
	ContextWindow   int
	MaxOutputTokens int
	Created         int64
	KnowledgeCutoff string
	Capabilities    []string
}

// ModelObject is the wire representation for the models endpoints.
type ModelObject struct {
	ID              string   `json:"id"`
	Object          string   `json:"object"`
	Created         int64    `json:"created"`
	OwnedBy         string   `json:"owned_by"`
	ContextWindow   int      `json:"context_window"`
	MaxOutputTokens int      `json:"max_output_tokens"`
	Capabilities    []string `json:"capabilities,omitempty"`
	KnowledgeCutoff string   `json:"knowledge_cutoff,omitempty"`
}

var (
	capsGPT5            = []string{"function_calling", "vision", "json_mode", "reasoning"}
	capsGPT4o           = []string{"function_calling", "vision", "json_mode"}
	capsGPT4            = []string{"function_calling", "json_mode"}
	capsOSeries         = []string{"function_calling", "json_mode", "reasoning"}
	capsClaude          = []string{"function_calling", "vision", "json_mode"}
	capsClaudeReasoning = []string{"function_calling", "vision", "json_mode", "reasoning"}
)

var registry = map[string]ModelInfo{
	"gpt-5":       {ID: "gpt-5", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1754524800, KnowledgeCutoff: "2024-09-30", Capabilities: capsGPT5},
	"gpt-5-mini":  {ID: "gpt-5-mini", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1754524800, KnowledgeCutoff: "2024-05-30", Capabilities: capsGPT5},
	"gpt-5-nano":  {ID: "gpt-5-nano", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1754524800, KnowledgeCutoff: "2024-05-30", Capabilities: capsGPT5},
	"gpt-5-codex": {ID: "gpt-5-codex", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1754524800, KnowledgeCutoff: "2024-09-30", Capabilities: capsGPT5},

	"gpt-5.1":            {ID: "gpt-5.1", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1762387200, KnowledgeCutoff: "2025-03-31", Capabilities: capsGPT5},
	"gpt-5.1-codex":      {ID: "gpt-5.1-codex", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1762387200, KnowledgeCutoff: "2025-03-31", Capabilities: capsGPT5},
	"gpt-5.1-codex-mini": {ID: "gpt-5.1-codex-mini", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1762387200, KnowledgeCutoff: "2025-03-31", Capabilities: capsGPT5},
	"gpt-5.1-codex-max":  {ID: "gpt-5.1-codex-max", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1762387200, KnowledgeCutoff: "2025-03-31", Capabilities: capsGPT5},

	"gpt-5.2": {ID: "gpt-5.2", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000, Created: 1765411200, KnowledgeCutoff: "2025-08-31", Capabilities: capsGPT5},

	"o3":      {ID: "o3", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000, Created: 1765411200, KnowledgeCutoff: "2024-12-31", Capabilities: capsOSeries},
	"o3-mini": {ID: "o3-mini", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000, Created: 1765411200, KnowledgeCutoff: "2024-12-31", Capabilities: capsOSeries},
	"o4-mini": {ID: "o4-mini", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000, Created: 1768003200, KnowledgeCutoff: "2025-06-30", Capabilities: capsOSeries},

	"gpt-4o":      {ID: "gpt-4o", Owner: "openai", ContextWindow: 128000, MaxOutputTokens: 16384, Created: 1715558400, KnowledgeCutoff: "2023-10-01", Capabilities: capsGPT4o},
	"gpt-4o-mini": {ID: "gpt-4o-mini", Owner: "openai", ContextWindow: 128000, MaxOutputTokens: 16384, Created: 1721692800, KnowledgeCutoff: "2023-10-01", Capabilities: capsGPT4o},
	"gpt-4-turbo": {ID: "gpt-4-turbo", Owner: "openai", ContextWindow: 128000, MaxOutputTokens: 4096, Created: 1712620800, KnowledgeCutoff: "2023-12-01", Capabilities: capsGPT4},
	"gpt-4":       {ID: "gpt-4", Owner: "openai", ContextWindow: 8192, MaxOutputTokens: 8192, Created: 1678838400, KnowledgeCutoff: "2023-04-01", Capabilities: capsGPT4},
	"gpt-4.1":     {ID: "gpt-4.1", Owner: "openai", ContextWindow: 1047576, MaxOutputTokens: 32768, Created: 1744675200, KnowledgeCutoff: "2024-06-01", Capabilities: capsGPT4o},

	"claude-3.5-sonnet": {ID: "claude-3.5-sonnet", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 8192, Created: 1718841600, KnowledgeCutoff: "2024-04-01", Capabilities: capsClaude},
	"claude-3.7-sonnet": {ID: "claude-3.7-sonnet", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000, Created: 1740355200, KnowledgeCutoff: "2024-10-31", Capabilities: capsClaudeReasoning},
	"claude-sonnet-4":   {ID: "claude-sonnet-4", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000, Created: 1747958400, KnowledgeCutoff: "2025-03-01", Capabilities: capsClaudeReasoning},
	"claude-opus-4":     {ID: "claude-opus-4", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000, Created: 1747958400, KnowledgeCutoff: "2025-03-01", Capabilities: capsClaudeReasoning},
	"claude-sonnet-4.5": {ID: "claude-sonnet-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000, Created: 1756684800, KnowledgeCutoff: "2025-05-01", Capabilities: capsClaudeReasoning},
	"claude-opus-4.5":   {ID: "claude-opus-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000, Created: 1756684800, KnowledgeCutoff: "2025-05-01", Capabilities: capsClaudeReasoning},
	"claude-haiku-4.5":  {ID: "claude-haiku-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000, Created: 1756684800, KnowledgeCutoff: "2025-05-01", Capabilities: capsClaudeReasoning},
}

// DefaultAvailable is the model list served when config does not override
// models.available.
var DefaultAvailable = []string{
	"gpt-5", "gpt-5-mini", "gpt-5-nano", "gpt-5-codex",
	"gpt-5.1", "gpt-5.1-codex", "gpt-5.1-codex-mini", "gpt-5.1-codex-max",
	"gpt-5.2", "gpt-5.2-pro", "gpt-5.2-codex", "gpt-5.3-codex",
	"o3", "o3-mini", "o4-mini",
	"gpt-4", "gpt-4-turbo", "gpt-4o", "gpt-4o-mini", "gpt-4.1",
	"claude-3.5-sonnet", "claude-3.7-sonnet",
	"claude-sonnet-4", "claude-sonnet-4.5",
	"claude-opus-4", "claude-opus-4.1", "claude-opus-4.5", "claude-opus-4.6",
	"claude-haiku-4.5",
}

// Lookup resolves a model ID to its info. Exact match first, then the
// longest registered prefix, then a synthesized entry so custom-configured
// IDs still serve sensible metadata.
func Lookup(id string) ModelInfo {
	if info, ok := registry[id]; ok {
		return info
	}

	var best string
	for key := range registry {
		if strings.HasPrefix(id, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		info := registry[best]
		info.ID = id
		return info
	}

	return ModelInfo{
		ID:              id,
		Owner:           inferOwner(id),
		ContextWindow:   128000,
		MaxOutputTokens: 16384,
		Created:         1678838400,
	}
}

func inferOwner(id string) string {
	switch {
	case strings.HasPrefix(id, "gpt"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"), strings.HasPrefix(id, "o1"):
		return "openai"
	case strings.HasPrefix(id, "claude"):
		return "anthropic"
	case strings.HasPrefix(id, "gemini"):
		return "google"
	}
	return "llmsim"
}

// Object converts model info to its wire form.
func (m ModelInfo) Object() ModelObject {
	return ModelObject{
		ID:              m.ID,
		Object:          "model",
		Created:         m.Created,
		OwnedBy:         m.Owner,
		ContextWindow:   m.ContextWindow,
		MaxOutputTokens: m.MaxOutputTokens,
		Capabilities:    m.Capabilities,
		KnowledgeCutoff: m.KnowledgeCutoff,
	}
}

// Registry serves the configured model set. The set can be swapped on
// config hot reload; reads take a shared lock.
type Registry struct {
	mu        sync.RWMutex
	available []string
	index     map[string]bool
}

// NewRegistry builds a registry over the configured model IDs. An empty
// list means DefaultAvailable.
func NewRegistry(available []string) *Registry {
	r := &Registry{}
	r.SetAvailable(available)
	return r
}

// SetAvailable replaces the configured model set.
func (r *Registry) SetAvailable(available []string) {
	if len(available) == 0 {
		available = DefaultAvailable
	}
	idx := make(map[string]bool, len(available))
	for _, id := range available {
		idx[id] = true
	}
	sorted := append([]string(nil), available...)
	sort.Strings(sorted)

	r.mu.Lock()
	r.available = sorted
	r.index = idx
	r.mu.Unlock()
}

// List returns the wire objects for every configured model.
func (r *Registry) List() []ModelObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelObject, 0, len(r.available))
	for _, id := range r.available {
		out = append(out, Lookup(id).Object())
	}
	return out
}

// Get returns the wire object for one configured model. false when the ID
// is not in the configured set.
func (r *Registry) Get(id string) (ModelObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.index[id] {
		return ModelObject{}, false
	}
	return Lookup(id).Object(), true
}
