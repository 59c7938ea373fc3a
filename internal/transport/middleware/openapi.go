package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/frahmantamala/jobly/internal"
)

// maxValidatedBody bounds what the validator buffers.
const maxValidatedBody = 1 << 20

// LoadOpenAPI reads and validates the API contract at path.
func LoadOpenAPI(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIValidator rejects requests whose parameters or body do not match the
// contract. Paths the document does not describe pass through untouched;
// authentication is enforced by the handlers, not here.
func OpenAPIValidator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil && r.Body != http.NoBody {
				body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxValidatedBody))
				if err != nil {
					logger.Info("request body could not be read for validation", "path", r.URL.Path, "error", err)
					writeContractError(w, unreadableBody(err))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Info("request rejected by openapi validation", "path", r.URL.Path, "error", err)
				writeContractError(w, internal.NewValidationError("Request does not match the API contract", internal.ErrCodeValidationFailed).
					WithDetails(map[string]string{"reason": err.Error()}))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}, nil
}

func unreadableBody(err error) *internal.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		appErr := internal.NewValidationError("Request body is too large", internal.ErrCodeValidationFailed)
		appErr.StatusCode = http.StatusRequestEntityTooLarge
		return appErr
	}
	return internal.NewValidationError("Request body could not be read", internal.ErrCodeValidationFailed)
}

func writeContractError(w http.ResponseWriter, appErr *internal.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(internal.Response{Error: appErr})
}
