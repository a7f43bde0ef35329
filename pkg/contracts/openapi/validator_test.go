package openapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `
openapi: 3.0.3
info:
  title: test
  version: 1.0.0
paths:
  /slots/{slot}/vend:
    post:
      operationId: vend
      parameters:
        - name: slot
          in: path
          required: true
          schema:
            type: integer
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [cash]
              properties:
                cash:
                  type: string
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                required: [dispensed]
                properties:
                  dispensed:
                    type: boolean
`

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidatorFromBytes([]byte(testSpec))
	require.NoError(t, err)
	return v
}

func vendRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestValidateRequest(t *testing.T) {
	v := newTestValidator(t)
	ctx := context.Background()

	assert.NoError(t, v.ValidateRequest(ctx, vendRequest("/slots/1/vend", `{"cash":"1.00"}`)))
	assert.Error(t, v.ValidateRequest(ctx, vendRequest("/slots/1/vend", `{}`)))
	assert.Error(t, v.ValidateRequest(ctx, vendRequest("/slots/abc/vend", `{"cash":"1"}`)))
	assert.Error(t, v.ValidateRequest(ctx, vendRequest("/unknown", `{}`)))
}

func TestValidateRequestRestoresBody(t *testing.T) {
	v := newTestValidator(t)
	req := vendRequest("/slots/1/vend", `{"cash":"1.00"}`)

	require.NoError(t, v.ValidateRequest(context.Background(), req))

	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"cash":"1.00"}`, buf.String())
}

func TestValidateResponse(t *testing.T) {
	v := newTestValidator(t)
	req := vendRequest("/slots/1/vend", `{"cash":"1.00"}`)
	header := http.Header{"Content-Type": []string{"application/json; charset=utf-8"}}

	assert.NoError(t, v.ValidateResponse(context.Background(), req, http.StatusOK, header, []byte(`{"dispensed":true}`)))
	assert.Error(t, v.ValidateResponse(context.Background(), req, http.StatusOK, header, []byte(`{"dispensed":"yes"}`)))
}

func TestOperationIDAndPaths(t *testing.T) {
	v := newTestValidator(t)

	id, err := v.OperationID(vendRequest("/slots/1/vend", `{}`))
	require.NoError(t, err)
	assert.Equal(t, "vend", id)
	assert.Equal(t, []string{"/slots/{slot}/vend"}, v.Paths())
}

func TestMachineAPIDocument(t *testing.T) {
	v, err := NewValidator("../../../docs/openapi.yaml")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"/api/v1/machine",
		"/api/v1/machine/slots/{slot}",
		"/api/v1/machine/slots/{slot}/vend",
		"/api/v1/machine/restock",
	}, v.Paths())
}
