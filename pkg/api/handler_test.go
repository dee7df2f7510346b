package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/api"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/api/resource"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/gateway"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage/memory"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/tracker"
)

type stubGateway struct {
	sendErr error
	ackErr  error
}

func (g *stubGateway) Send(_ context.Context, _, _ string) error {
	return g.sendErr
}

func (g *stubGateway) AcknowledgeSOS(_ context.Context, _ string) error {
	return g.ackErr
}

const testIMEI = "300234010961140"

func newTestServer(t *testing.T, gw *stubGateway) *echo.Echo {
	t.Helper()
	if gw == nil {
		gw = &stubGateway{}
	}

	store := memory.NewStore()
	tr := tracker.New(nil, store, gw, 10)
	t.Cleanup(tr.Stop)

	e := echo.New()
	api.NewHandler(nil, store, tr).RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestInboundPushCreatesAsset(t *testing.T) {
	e := newTestServer(t, nil)

	body := `{
		"Version": "2.0",
		"Events": [{
			"IMEI": "300234010961140",
			"MessageCode": 4,
			"FreeText": "help",
			"TimeStamp": 1774000000000,
			"Point": {"Latitude": 32.08, "Longitude": 34.78}
		}]
	}`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := resource.AssetListResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Members, 1)
	assert.Equal(t, testIMEI, list.Members[0].ID)
	assert.True(t, list.Members[0].ActiveSOS)
	require.NotNil(t, list.Members[0].LastPosition)
	assert.Equal(t, 32.08, list.Members[0].LastPosition.Latitude)
}

func TestInboundPushAcceptsBareArray(t *testing.T) {
	e := newTestServer(t, nil)

	body := `[{"IMEI": "300234010961140", "MessageCode": 0}]`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/"+testIMEI, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInboundPushToleratesMalformedEvent(t *testing.T) {
	e := newTestServer(t, nil)

	// A degenerate event must not fail the batch; it lands on the
	// sentinel asset instead.
	body := `{"Events": [{"MessageCode": "garbage", "TimeStamp": -1}]}`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/VIRTUAL-TEST", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAssetDetail(t *testing.T) {
	e := newTestServer(t, nil)

	body := `{"Events": [
		{"IMEI": "300234010961140", "MessageCode": 2, "FreeText": "checking in", "TimeStamp": 1774000000000},
		{"IMEI": "300234010961140", "MessageCode": 0, "TimeStamp": 1774000060000, "Point": {"Latitude": 32.08, "Longitude": 34.78}}
	]}`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/"+testIMEI, "")
	require.Equal(t, http.StatusOK, rec.Code)

	detail := resource.AssetDetailResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, testIMEI, detail.Asset.ID)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "checking in", detail.Messages[0].Text)
	require.Len(t, detail.Positions, 1)
	require.Len(t, detail.Timeline, 2)
}

func TestGetAssetDetailUnknownReturnsNotFound(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doJSON(e, http.MethodGet, "/api/v1/assets/unknown-imei", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessage(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doJSON(e, http.MethodPost, "/api/v1/assets/"+testIMEI+"/messages",
		`{"text": "status check", "isSos": false}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/"+testIMEI, "")
	require.Equal(t, http.StatusOK, rec.Code)

	detail := resource.AssetDetailResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "outbound", detail.Messages[0].Direction)
}

func TestSendMessageRequiresText(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doJSON(e, http.MethodPost, "/api/v1/assets/"+testIMEI+"/messages", `{"isSos": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageGatewayFailureKeepsRecord(t *testing.T) {
	gw := &stubGateway{sendErr: gateway.NewError(gateway.ErrCodeSendFailed, nil)}
	e := newTestServer(t, gw)

	rec := doJSON(e, http.MethodPost, "/api/v1/assets/"+testIMEI+"/messages",
		`{"text": "status check"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/"+testIMEI, "")
	require.Equal(t, http.StatusOK, rec.Code)

	detail := resource.AssetDetailResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Messages, 1)
}

func TestAcknowledgeSOSEndpoint(t *testing.T) {
	e := newTestServer(t, nil)

	body := `{"Events": [{"IMEI": "300234010961140", "MessageCode": 4, "TimeStamp": 1774000000000}]}`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/assets/"+testIMEI+"/sos/ack", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/"+testIMEI, "")
	detail := resource.AssetDetailResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.NotNil(t, detail.Asset.LastSOSAckAt)
	assert.True(t, detail.Asset.ActiveSOS)
}

func TestCloseAsset(t *testing.T) {
	e := newTestServer(t, nil)

	body := `{"Events": [{"IMEI": "300234010961140", "MessageCode": 0}]}`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/assets/"+testIMEI+"/close", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/assets/"+testIMEI, "")
	detail := resource.AssetDetailResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "closed", detail.Asset.Status)
}

func TestFetchEvents(t *testing.T) {
	e := newTestServer(t, nil)

	body := `{"Events": [{"IMEI": "300234010961140", "MessageCode": 0}]}`
	rec := doJSON(e, http.MethodPost, "/api/v1/inbound", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := resource.EventListResource{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Members, 1)
	assert.Equal(t, testIMEI, list.Members[0].DeviceID)
}
