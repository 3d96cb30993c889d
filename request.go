package tether

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tether/pkg/logger"
	"github.com/okian/tether/pkg/metrics"
)

// RequestIDHeader carries the per-request id generated for every dispatch
// unless the caller set one already.
const RequestIDHeader = "X-Request-Id"

// errorBodyLimit caps how much of an error response body a TransportError
// carries.
const errorBodyLimit = 2048

// Request is one in-flight call against a Route: URL args, query params,
// headers, and body accumulated through the chainable setters, dispatched by
// one of the terminal method calls. Created per call, never shared.
type Request struct {
	route   *Route
	urlargs map[string]string
	params  url.Values
	headers http.Header

	jsonBody any
	hasJSON  bool
	rawBody  []byte
	rawType  string
	form     url.Values
}

func newRequest(r *Route) *Request {
	return &Request{
		route:   r,
		urlargs: make(map[string]string),
		params:  make(url.Values),
		headers: make(http.Header),
	}
}

// Route returns the route this request targets. Authenticators use it to
// recognize their own login route.
func (q *Request) Route() *Route { return q.route }

// IsFor reports whether the request targets any of the given routes.
func (q *Request) IsFor(routes ...*Route) bool {
	for _, r := range routes {
		if q.route == r {
			return true
		}
	}
	return false
}

// URLArg sets one URL-template argument. Nil and empty values are dropped.
func (q *Request) URLArg(name string, value any) *Request {
	if s := stringify(value); s != "" {
		q.urlargs[name] = s
	}
	return q
}

// URLArgs merges URL-template arguments. Nil and empty values are dropped.
func (q *Request) URLArgs(args map[string]any) *Request {
	for name, value := range args {
		q.URLArg(name, value)
	}
	return q
}

// Param sets one query parameter.
func (q *Request) Param(name string, value any) *Request {
	if s := stringify(value); s != "" {
		q.params.Set(name, s)
	}
	return q
}

// Params merges query parameters.
func (q *Request) Params(params map[string]any) *Request {
	for name, value := range params {
		q.Param(name, value)
	}
	return q
}

// Header sets one per-call header, overriding app and route headers.
func (q *Request) Header(key, value string) *Request {
	q.headers.Set(key, value)
	return q
}

// Headers merges per-call headers.
func (q *Request) Headers(headers map[string]string) *Request {
	for k, v := range headers {
		q.headers.Set(k, v)
	}
	return q
}

// JSON sets the request body to the JSON encoding of v.
func (q *Request) JSON(v any) *Request {
	q.jsonBody = v
	q.hasJSON = true
	return q
}

// Body sets a raw request body with its content type.
func (q *Request) Body(body []byte, contentType string) *Request {
	q.rawBody = body
	q.rawType = contentType
	return q
}

// Form sets an URL-encoded form body.
func (q *Request) Form(values url.Values) *Request {
	q.form = values
	return q
}

// Get dispatches the request with method GET.
func (q *Request) Get(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodGet) }

// Post dispatches the request with method POST.
func (q *Request) Post(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodPost) }

// Put dispatches the request with method PUT.
func (q *Request) Put(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodPut) }

// Patch dispatches the request with method PATCH.
func (q *Request) Patch(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodPatch) }

// Delete dispatches the request with method DELETE.
func (q *Request) Delete(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodDelete) }

// Head dispatches the request with method HEAD.
func (q *Request) Head(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodHead) }

// Options dispatches the request with method OPTIONS.
func (q *Request) Options(ctx context.Context) (any, error) { return q.Do(ctx, http.MethodOptions) }

// Do validates the request, runs the authenticator, performs the HTTP
// exchange, and feeds the raw response to the route's handler. All failures
// wrap one of the sentinel kinds; validation and authentication failures
// never reach the transport.
func (q *Request) Do(ctx context.Context, method string) (any, error) {
	r := q.route
	a := r.app
	method = strings.ToUpper(strings.TrimSpace(method))

	fail := func(kind string, err error) (any, error) {
		a.rec.ObserveFailure(r.path, method, kind)
		return nil, err
	}

	if !a.disableValidation && !r.Allows(method) {
		return fail(metrics.FailureValidation, &ValidationError{
			Route:  r.path,
			Reason: fmt.Sprintf("method %s not in allowed set %v", method, r.Methods()),
		})
	}

	target, err := q.resolveURL()
	if err != nil {
		return fail(metrics.FailureValidation, err)
	}
	query, err := q.resolveParams()
	if err != nil {
		return fail(metrics.FailureValidation, err)
	}

	headers := make(http.Header)
	mergeHeaders(headers, a.headers)
	mergeHeaders(headers, r.headers)
	mergeHeaders(headers, q.headers)

	if a.auth != nil && !r.noAuth && !authInProgress(ctx) {
		authed, err := a.auth.Authenticate(withAuthInProgress(ctx), q)
		if err != nil {
			return fail(metrics.FailureAuthentication, &AuthenticationError{Route: r.path, Err: err})
		}
		mergeHeaders(headers, authed)
		a.rec.ObserveAuth()
	}

	body, contentType, err := q.encodeBody()
	if err != nil {
		return fail(metrics.FailureValidation, err)
	}
	if contentType != "" && headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", contentType)
	}
	if headers.Get(RequestIDHeader) == "" {
		headers.Set(RequestIDHeader, uuid.NewString())
	}

	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail(metrics.FailureTransport, &TransportError{Method: method, URL: target, Err: err})
	}
	httpReq.Header = headers

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.rec.ObserveRequest(r.path, method, 0, time.Since(start))
		return fail(metrics.FailureTransport, &TransportError{Method: method, URL: target, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start)
	a.rec.ObserveRequest(r.path, method, resp.StatusCode, elapsed)
	a.log.Debug(ctx, "request complete",
		logger.String("method", method),
		logger.String("url", target),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", elapsed))

	if resp.StatusCode >= http.StatusBadRequest && !r.allowErrorStatus {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fail(metrics.FailureTransport, &TransportError{
			Method: method,
			URL:    target,
			Status: resp.StatusCode,
			Body:   string(snippet),
		})
	}

	handler := r.handler
	if handler == nil {
		handler = DefaultHandler
	}
	return handler(resp)
}

// resolveURL applies URL-param defaults and validation, then expands the
// route template against the accumulated args. With validation disabled the
// declared params are skipped entirely and the template expands leniently.
func (q *Request) resolveURL() (string, error) {
	r := q.route
	args := make(map[string]string, len(q.urlargs))
	for k, v := range q.urlargs {
		args[k] = v
	}
	if r.app.disableValidation {
		return joinURL(r.app.domain, r.template.ExpandLenient(args)), nil
	}

	for _, p := range r.urlParams {
		v, err := p.resolve(args[p.Name])
		if err != nil {
			return "", &ValidationError{Route: r.path, Param: p.Name, Reason: err.Error()}
		}
		if v == "" {
			delete(args, p.Name)
		} else {
			args[p.Name] = v
		}
	}

	path, err := r.template.Expand(args)
	if err != nil {
		return "", &ValidationError{Route: r.path, Reason: err.Error()}
	}
	return joinURL(r.app.domain, path), nil
}

func joinURL(domain, path string) string {
	return strings.TrimRight(domain, "/") + "/" + strings.TrimLeft(path, "/")
}

// resolveParams validates supplied query params against the route's declared
// params and fills in defaults.
func (q *Request) resolveParams() (url.Values, error) {
	r := q.route
	out := make(url.Values, len(q.params))
	for k, vs := range q.params {
		out[k] = append([]string(nil), vs...)
	}
	if r.app.disableValidation {
		return out, nil
	}
	for _, p := range r.params {
		v, err := p.resolve(out.Get(p.Name))
		if err != nil {
			return nil, &ValidationError{Route: r.path, Param: p.Name, Reason: err.Error()}
		}
		if v == "" {
			out.Del(p.Name)
		} else {
			out.Set(p.Name, v)
		}
	}
	return out, nil
}

func (q *Request) encodeBody() ([]byte, string, error) {
	set := 0
	if q.hasJSON {
		set++
	}
	if q.rawBody != nil {
		set++
	}
	if q.form != nil {
		set++
	}
	if set > 1 {
		return nil, "", &ValidationError{Route: q.route.path, Reason: "more than one request body set"}
	}

	switch {
	case q.hasJSON:
		b, err := json.Marshal(q.jsonBody)
		if err != nil {
			return nil, "", &ValidationError{Route: q.route.path, Reason: fmt.Sprintf("encode json body: %v", err)}
		}
		return b, "application/json", nil
	case q.form != nil:
		return []byte(q.form.Encode()), "application/x-www-form-urlencoded", nil
	case q.rawBody != nil:
		return q.rawBody, q.rawType, nil
	}
	return nil, "", nil
}

func (q *Request) String() string {
	return fmt.Sprintf("<Request for %s>", q.route.path)
}

func mergeHeaders(dst, src http.Header) {
	for k, vs := range src {
		dst[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
}

// stringify renders URL args and query params supplied as arbitrary values.
// Nil renders empty and is dropped by the callers.
func stringify(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
