package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"foundrybay/core/internal/api/middleware"
	"foundrybay/core/internal/cache"
	"foundrybay/core/internal/models"
	"foundrybay/core/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser injects the authenticated user the way AuthMiddleware would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	}
}

func newTestRouter(userID string, h *RFQHandler) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1", asUser(userID))
	v1.POST("/rfq", h.CreateRFQ)
	v1.GET("/rfq/:id", h.GetRFQ)
	v1.POST("/rfq/:id/accept", h.AcceptRFQ)
	v1.POST("/rfq/:id/decline", h.DeclineRFQ)
	v1.POST("/rfq/:id/info", h.RequestMoreInfo)
	v1.POST("/rfq/:id/award", h.AwardRFQ)
	v1.POST("/rfq/:id/release", h.ReleaseHold)
	v1.POST("/rfq/:id/close", h.CloseRFQ)
	v1.POST("/rfq/:id/cancel", h.CancelRFQ)
	v1.GET("/rfq/:id/race", h.RaceStatus)
	v1.GET("/invitations", h.ListInvitations)
	return router
}

func newHandlerFixtures() (*MockRFQService, *MockRaceService, *MockAsynqClient, *RFQHandler) {
	rfqSvc := new(MockRFQService)
	raceSvc := new(MockRaceService)
	client := new(MockAsynqClient)
	h := NewRFQHandler(rfqSvc, raceSvc, client, cache.NewStatusCache(nil, 0))
	return rfqSvc, raceSvc, client, h
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRFQHandler_CreateRFQ(t *testing.T) {
	rfqSvc, _, client, h := newHandlerFixtures()
	router := newTestRouter("buyer-1", h)

	opensAt := time.Now().UTC()
	created := &models.RFQ{ID: "rfq-1", BuyerID: "buyer-1", Status: models.RFQStatusOpen, RaceOpensAt: &opensAt}
	rfqSvc.On("Create", mock.Anything, mock.MatchedBy(func(in services.CreateRFQInput) bool {
		return in.BuyerID == "buyer-1" && in.Title == "5000 flanges"
	})).Return(created, nil)
	client.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	w := doJSON(router, http.MethodPost, "/v1/rfq", gin.H{
		"rfq_type": "commodity",
		"title":    "5000 flanges",
		"category": "casting",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	rfqSvc.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestRFQHandler_CreateRFQ_MissingFields(t *testing.T) {
	_, _, _, h := newHandlerFixtures()
	router := newTestRouter("buyer-1", h)

	w := doJSON(router, http.MethodPost, "/v1/rfq", gin.H{"title": "no type or category"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRFQHandler_AcceptRFQ(t *testing.T) {
	_, raceSvc, _, h := newHandlerFixtures()
	router := newTestRouter("provider-1", h)

	price := 900.0
	raceSvc.On("AcceptRFQ", mock.Anything, "rfq-1", "provider-1", &price).
		Return(&services.AcceptOutcome{Awarded: true}, nil)

	w := doJSON(router, http.MethodPost, "/v1/rfq/rfq-1/accept", gin.H{"quoted_price": 900.0})
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data services.AcceptOutcome `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Awarded)
}

func TestRFQHandler_AcceptRFQ_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		code       services.ErrorCode
		wantStatus int
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"invalid state", services.ErrInvalidState, http.StatusConflict},
		{"duplicate", services.ErrDuplicateResponse, http.StatusConflict},
		{"not yet open", services.ErrNotYetOpen, http.StatusTooEarly},
		{"validation", services.ErrValidation, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, raceSvc, _, h := newHandlerFixtures()
			router := newTestRouter("provider-1", h)

			raceSvc.On("AcceptRFQ", mock.Anything, "rfq-1", "provider-1", (*float64)(nil)).
				Return(nil, &services.RaceError{Code: tc.code, Reason: "rejected"})

			w := doJSON(router, http.MethodPost, "/v1/rfq/rfq-1/accept", gin.H{})
			assert.Equal(t, tc.wantStatus, w.Code)

			var body map[string]string
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tc.code), body["code"])
		})
	}
}

func TestRFQHandler_AwardRFQ_Forbidden(t *testing.T) {
	_, raceSvc, _, h := newHandlerFixtures()
	router := newTestRouter("intruder", h)

	raceSvc.On("AwardRFQ", mock.Anything, "rfq-1", "provider-1", "intruder").
		Return(&services.RaceError{Code: services.ErrUnauthorized, Reason: "only the RFQ's buyer can award it"})

	w := doJSON(router, http.MethodPost, "/v1/rfq/rfq-1/award", gin.H{"provider_id": "provider-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRFQHandler_RaceStatus(t *testing.T) {
	_, raceSvc, _, h := newHandlerFixtures()
	router := newTestRouter("buyer-1", h)

	raceSvc.On("CheckRaceStatus", mock.Anything, "rfq-1").Return(&services.RaceStatus{
		RFQID:     "rfq-1",
		RFQStatus: models.RFQStatusBidding,
		Label:     "open",
	}, nil)

	w := doJSON(router, http.MethodGet, "/v1/rfq/rfq-1/race", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data services.RaceStatus `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "open", body.Data.Label)
}

func TestRFQHandler_ListInvitations(t *testing.T) {
	_, raceSvc, _, h := newHandlerFixtures()
	router := newTestRouter("provider-1", h)

	raceSvc.On("ListInvitations", mock.Anything, "provider-1").Return([]models.Broadcast{
		{ID: "b-1", RFQID: "rfq-1", ProviderID: "provider-1"},
	}, nil)

	w := doJSON(router, http.MethodGet, "/v1/invitations", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.Broadcast `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
}

func TestRFQHandler_InfoRequiresQuestions(t *testing.T) {
	_, _, _, h := newHandlerFixtures()
	router := newTestRouter("provider-1", h)

	w := doJSON(router, http.MethodPost, "/v1/rfq/rfq-1/info", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
