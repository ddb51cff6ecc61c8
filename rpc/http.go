package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	coreerrors "ultrachain/core/errors"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32002
	codeArithmetic     = -32003
	codePrecondition   = -32004
	codeRateLimited    = -32020
)

// Backend is the contract host served over RPC.
type Backend interface {
	Instantiate(target string, sender crypto.Address, msg json.RawMessage) (*types.Response, error)
	Execute(target string, sender crypto.Address, msg json.RawMessage) (*types.Response, error)
	Sudo(target string, sender crypto.Address, msg json.RawMessage) (*types.Response, error)
	Query(target string, msg json.RawMessage) (json.RawMessage, error)
	Contracts() map[string]string
	Balance(addr crypto.Address, denom string) (*big.Int, error)
}

type Config struct {
	// AuthToken guards mutating methods. An empty token rejects them.
	AuthToken string
	Denom     string
	Logger    *slog.Logger
	// RateLimit applies per client to mutating methods.
	RateLimit RateLimit
	// WSOrigins lists the origin patterns accepted by the event stream.
	WSOrigins []string
}

type Server struct {
	backend   Backend
	authToken string
	denom     string
	logger    *slog.Logger
	limiter   *rateLimiter
	wsOrigins []string
	tracer    trace.Tracer
	handler   http.Handler

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

func NewServer(backend Backend, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		backend:   backend,
		authToken: strings.TrimSpace(cfg.AuthToken),
		denom:     strings.TrimSpace(cfg.Denom),
		logger:    logger.With("component", "rpc"),
		limiter:   newRateLimiter(cfg.RateLimit),
		wsOrigins: cfg.WSOrigins,
		tracer:    otel.Tracer("ultrachain/rpc"),
	}
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/events", s.handleEventsWS)
	r.Post("/", s.handle)
	s.handler = otelhttp.NewHandler(r, "ultra-rpc")
	return s
}

// Handler exposes the instrumented router for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("starting JSON-RPC server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeContractError maps a classified invocation failure onto JSON-RPC.
func writeContractError(w http.ResponseWriter, id interface{}, err error) {
	code := coreerrors.Classify(err)
	status, rpcCode := http.StatusInternalServerError, codeServerError
	switch code {
	case coreerrors.CodeUnauthorized:
		status, rpcCode = http.StatusForbidden, codeUnauthorized
	case coreerrors.CodeNotFound:
		status, rpcCode = http.StatusNotFound, codeNotFound
	case coreerrors.CodeArithmetic:
		status, rpcCode = http.StatusUnprocessableEntity, codeArithmetic
	case coreerrors.CodePrecondition:
		status, rpcCode = http.StatusConflict, codePrecondition
	case coreerrors.CodeInvalidRequest:
		status, rpcCode = http.StatusBadRequest, codeInvalidParams
	}
	writeError(w, status, id, rpcCode, err.Error(), map[string]interface{}{
		"code":  uint32(code),
		"class": code.String(),
	})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	logger := s.logger.With("request_id", w.Header().Get(requestIDHeader), "method", req.Method)

	switch req.Method {
	case "contract_instantiate", "contract_execute", "contract_sudo":
		if authErr := s.requireAuth(r); authErr != nil {
			logger.Warn("rejected unauthenticated call", logging.MaskField("authorization", r.Header.Get("Authorization")))
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		if source := clientSource(r); !s.limiter.allow(source) {
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", source)
			return
		}
		s.handleContractCall(w, r, req, logger)
	case "contract_query":
		s.handleContractQuery(w, r, req)
	case "contracts_list":
		writeResult(w, req.ID, s.backend.Contracts())
	case "bank_balance":
		s.handleBalance(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func decodeParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected a single parameter object")
	}
	decoder := json.NewDecoder(bytes.NewReader(req.Params[0]))
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func (s *Server) handleContractCall(w http.ResponseWriter, r *http.Request, req *RPCRequest, logger *slog.Logger) {
	var params ContractCallParams
	if err := decodeParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	if strings.TrimSpace(params.Contract) == "" || len(params.Msg) == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "contract and msg are required", nil)
		return
	}
	sender, err := crypto.DecodeAddress(strings.TrimSpace(params.Sender))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid sender address", err.Error())
		return
	}

	_, span := s.tracer.Start(r.Context(), req.Method, trace.WithAttributes(
		attribute.String("contract", params.Contract),
		attribute.String("sender", sender.String()),
	))
	defer span.End()

	var resp *types.Response
	switch req.Method {
	case "contract_instantiate":
		resp, err = s.backend.Instantiate(params.Contract, sender, params.Msg)
	case "contract_sudo":
		resp, err = s.backend.Sudo(params.Contract, sender, params.Msg)
	default:
		resp, err = s.backend.Execute(params.Contract, sender, params.Msg)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.class", coreerrors.Classify(err).String()))
		logger.Info("contract call failed", "contract", params.Contract, "error", err)
		writeContractError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, executeResult(resp))
}

func (s *Server) handleContractQuery(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params ContractQueryParams
	if err := decodeParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	if strings.TrimSpace(params.Contract) == "" || len(params.Msg) == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "contract and msg are required", nil)
		return
	}
	_, span := s.tracer.Start(r.Context(), req.Method, trace.WithAttributes(attribute.String("contract", params.Contract)))
	defer span.End()
	result, err := s.backend.Query(params.Contract, params.Msg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeContractError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleBalance(w http.ResponseWriter, req *RPCRequest) {
	var params BalanceParams
	if err := decodeParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := crypto.DecodeAddress(strings.TrimSpace(params.Address))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "failed to decode address", err.Error())
		return
	}
	denom := strings.TrimSpace(params.Denom)
	if denom == "" {
		denom = s.denom
	}
	amount, err := s.backend.Balance(addr, denom)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load balance", err.Error())
		return
	}
	writeResult(w, req.ID, BalanceResponse{Address: addr.String(), Denom: denom, Amount: amountString(amount)})
}
