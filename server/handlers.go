package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"light-chat/llm"
)

const (
	errMessagesRequired = "Messages are required and must be an array"
	errInternal         = "Internal server error"
	errInvalidLogin     = "Invalid credentials"
)

// ChatResponse is the success body of /api/chat
type ChatResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the failure body of /api/chat
type ErrorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

var errNotArray = errors.New("messages must be an array")

// decodeMessages distinguishes an unreadable body from a missing or non-array field
func decodeMessages(body io.Reader) ([]llm.Message, error) {
	var doc json.RawMessage
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, err
	}

	// valid JSON that is not an object has no messages field
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, errNotArray
	}

	raw := bytes.TrimSpace(envelope["messages"])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errNotArray
	}

	// an array of non-messages is a server-side failure, not a bad request
	var messages []llm.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

func (s *Server) handleChat(c *gin.Context) {
	messages, err := decodeMessages(c.Request.Body)
	if errors.Is(err, errNotArray) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: errMessagesRequired})
		return
	}
	if err != nil {
		s.logger.Error("Error in chat API: failed to parse request: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: errInternal})
		return
	}

	reply, err := s.provider.Chat(c.Request.Context(), messages)
	if err == nil && reply == "" {
		err = llm.ErrNoResponse
	}
	if err != nil {
		s.metrics.completionFailures.Inc()
		s.logger.Error("Error in chat API: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: errInternal})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Message: reply})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Malformed login request: %v", err)
		s.metrics.loginAttempts.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusUnauthorized, loginResponse{Success: false, Error: errInvalidLogin})
		return
	}

	ok, err := s.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Error("Login check failed: %v", err)
		s.metrics.loginAttempts.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, loginResponse{Success: false, Error: errInternal})
		return
	}
	if !ok {
		s.metrics.loginAttempts.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnauthorized, loginResponse{Success: false, Error: errInvalidLogin})
		return
	}

	s.metrics.loginAttempts.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, loginResponse{Success: true})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.config.Version})
}
