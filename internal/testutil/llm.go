package testutil

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
)

// FakeLLMServer is an OpenAI-compatible HTTP stub covering the three
// endpoints the assistant uses: model listing, embeddings, and chat
// completions. Embeddings are deterministic bag-of-words vectors so that
// texts sharing vocabulary score closer under cosine similarity.
type FakeLLMServer struct {
	Server *httptest.Server

	Models     []string
	Dimensions int

	// CompleteFunc produces the completion for a prompt. Defaults to a
	// fixed acknowledgement when nil.
	CompleteFunc func(prompt string) string
}

// NewFakeLLMServer starts the stub with the given model identifiers.
func NewFakeLLMServer(models []string, dimensions int) *FakeLLMServer {
	f := &FakeLLMServer{
		Models:     models,
		Dimensions: dimensions,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/models", f.handleModels)
	mux.HandleFunc("/embeddings", f.handleEmbeddings)
	mux.HandleFunc("/chat/completions", f.handleChatCompletions)

	f.Server = httptest.NewServer(mux)
	return f
}

// URL returns the base URL to use as the backend endpoint.
func (f *FakeLLMServer) URL() string {
	return f.Server.URL
}

// Close shuts the stub down.
func (f *FakeLLMServer) Close() {
	f.Server.Close()
}

func (f *FakeLLMServer) handleModels(w http.ResponseWriter, r *http.Request) {
	type model struct {
		ID     string `json:"id"`
		Object string `json:"object"`
	}
	data := make([]model, 0, len(f.Models))
	for _, id := range f.Models {
		data = append(data, model{ID: id, Object: "model"})
	}
	writeJSON(w, map[string]any{"object": "list", "data": data})
}

func (f *FakeLLMServer) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	type embeddingData struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}
	data := make([]embeddingData, 0, len(req.Input))
	for i, text := range req.Input {
		data = append(data, embeddingData{
			Object:    "embedding",
			Index:     i,
			Embedding: f.embed(text),
		})
	}
	writeJSON(w, map[string]any{"object": "list", "data": data, "model": req.Model})
}

func (f *FakeLLMServer) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}

	answer := "This is a test completion."
	if f.CompleteFunc != nil {
		answer = f.CompleteFunc(prompt)
	}

	writeJSON(w, map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": answer,
				},
			},
		},
	})
}

// embed hashes each word into a fixed slot and normalizes the result.
func (f *FakeLLMServer) embed(text string) []float32 {
	vec := make([]float32, f.Dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,:;!?#*")))
		vec[h.Sum32()%uint32(f.Dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
