package testtools

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// GenerateCtxWithJSONAndParams builds a POST gin.Context carrying data as its JSON body.
func GenerateCtxWithJSONAndParams(t *testing.T, data interface{}, params []gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Params = params
	ctx.Request = httptest.NewRequest(http.MethodPost, "http://localhost:8080", nil)
	ctx.Request.Header.Set("Content-Type", "application/json")

	jsonbytes, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	ctx.Request.Body = io.NopCloser(bytes.NewReader(jsonbytes))

	return ctx, recorder
}

// GenerateCtxWithRawBody builds a gin.Context with an arbitrary body and headers.
func GenerateCtxWithRawBody(method, target string, body []byte, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest(method, target, bytes.NewReader(body))

	for key, value := range headers {
		ctx.Request.Header.Set(key, value)
	}

	return ctx, recorder
}

// GenerateCtxWithQuery builds a GET gin.Context for target, e.g. "/verify?certificate_number=x".
func GenerateCtxWithQuery(target string, params []gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	ctx, recorder := GenerateCtxWithRawBody(http.MethodGet, target, nil, nil)
	ctx.Params = params

	return ctx, recorder
}

// DecodeEnvelope unmarshals a recorded response body into v.
func DecodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("could not decode response %q: %s", recorder.Body.String(), err)
	}
}
