package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/dixieflatline76/Framer/config"
	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/pkg/generation"
	"github.com/dixieflatline76/Framer/pkg/studio"
	"github.com/dixieflatline76/Framer/util"
	"github.com/dixieflatline76/Framer/util/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "running",
		"version":    config.AppVersion,
		"generating": s.studio.Generating(),
	})
}

type styleOption struct {
	Value generation.Style `json:"value"`
	Label string           `json:"label"`
}

type optionsBody struct {
	Styles         []styleOption `json:"styles"`
	AspectRatios   []frame.Ratio `json:"aspect_ratios"`
	Fits           []frame.Fit   `json:"fits"`
	Defaults       defaultsBody  `json:"defaults"`
	FaceAwareCrop  bool          `json:"face_aware_crop"`
	MaxUploadBytes int64         `json:"max_upload_bytes"`
	UploadTypes    []string      `json:"upload_types"`
}

type defaultsBody struct {
	Style generation.Style `json:"style"`
	Ratio frame.Ratio      `json:"aspect_ratio"`
	Fit   frame.Fit        `json:"fit"`
}

// handleOptions lists the form choices and their defaults.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	styles := make([]styleOption, 0, len(generation.Styles()))
	for _, st := range generation.Styles() {
		styles = append(styles, styleOption{Value: st, Label: st.Label()})
	}
	d := s.studio.Defaults()

	writeJSON(w, http.StatusOK, optionsBody{
		Styles:         styles,
		AspectRatios:   frame.Ratios(),
		Fits:           frame.Fits(),
		Defaults:       defaultsBody{Style: d.Style, Ratio: d.Ratio, Fit: d.Fit},
		FaceAwareCrop:  s.opts.FaceAware,
		MaxUploadBytes: s.opts.MaxUploadBytes,
		UploadTypes:    allowedUploadTypes,
	})
}

// handleState returns the current view.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.View())
}

// handleGenerate runs one generation and responds with the resulting view.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseParams(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, errUploadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "The reference image is too large.")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.studio.Generate(r.Context(), params)
	s.writeGenerateResult(w, view, err)
}

// handleRetry re-runs the last generation.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	view, err := s.studio.Retry(r.Context())
	s.writeGenerateResult(w, view, err)
}

func (s *Server) writeGenerateResult(w http.ResponseWriter, view studio.View, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, studio.ErrBusy):
		writeError(w, http.StatusConflict, "An image is already being generated. Please wait for it to finish.")
	case errors.Is(err, studio.ErrNothingToRetry):
		writeError(w, http.StatusBadRequest, "There is nothing to retry yet.")
	case errors.Is(err, studio.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, invalidMessage(err))
	default:
		writeJSON(w, http.StatusBadGateway, view)
	}
}

func invalidMessage(err error) string {
	if errors.Is(err, generation.ErrEmptyPrompt) {
		return generation.Describe(err)
	}
	return err.Error()
}

// handleDismiss clears an error view.
func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Dismiss())
}

type enhanceBody struct {
	Prompt string `json:"prompt"`
}

// handleEnhance returns a richer version of the submitted prompt.
func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	suggestion, err := s.studio.Enhance(r.Context(), req.Prompt)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, enhanceBody{Prompt: suggestion})
	case errors.Is(err, studio.ErrBusy):
		writeError(w, http.StatusConflict, "A suggestion is already being prepared.")
	case errors.Is(err, generation.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, generation.Describe(err))
	default:
		writeError(w, http.StatusBadGateway, generation.Describe(err))
	}
}

// handleImage serves a stored result, as a download unless ?inline=1.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	result, ok := s.studio.Result(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Image not found or expired.")
		return
	}

	disposition := "attachment"
	if inline, _ := strconv.ParseBool(r.URL.Query().Get("inline")); inline {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": result.Filename()}))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(result.Data); err != nil {
		log.Printf("writing image %s: %v", result.ID, err)
	}
}

// handleVersion reports the running version and, when enabled, the latest release.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !s.opts.UpdateCheck {
		writeJSON(w, http.StatusOK, util.CurrentVersion())
		return
	}

	if cached, ok := s.versions.Get("latest"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	result, err := util.CheckForUpdates(r.Context(), s.opts.HTTPClient)
	if err != nil {
		log.Printf("update check failed: %v", err)
		writeJSON(w, http.StatusOK, util.CurrentVersion())
		return
	}
	s.versions.SetDefault("latest", result)
	writeJSON(w, http.StatusOK, result)
}

// handleWebSocket upgrades the connection, sends the current view and then
// keeps the client registered for broadcasts until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	err = conn.WriteJSON(s.studio.View())
	s.clientsMu.Unlock()
	if err != nil {
		log.Printf("WebSocket initial write failed: %v", err)
	}

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("WebSocket read ended: %v", err)
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
			s.clientsMu.Lock()
			err := conn.WriteJSON(map[string]string{"type": "pong"})
			s.clientsMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
