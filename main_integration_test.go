package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foundrybay/core/internal/auth"
	"foundrybay/core/internal/models"
)

const (
	testAppBinary  = "./foundrybay_test_app"
	testAppPort    = "8089"
	testAppURL     = "http://localhost:" + testAppPort
	testJwtSecret  = "integration-test-secret"
	testMongoDB    = "foundrybay_integration_test"
	startupTimeout = 15 * time.Second
	pingEndpoint   = testAppURL + "/v1/ping"
)

var (
	testBuyerID    = uuid.NewString()
	testProviderID = uuid.NewString()
)

func testMongoURI() string {
	if uri := os.Getenv("MONGO_URI_TEST"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// TestMain builds the binary, seeds a supplier, runs the app in 'all' mode
// (API plus background worker) and tears everything down afterwards.
func TestMain(m *testing.M) {
	defer func() {
		log.Println("Integration Test Teardown: Cleaning up test binary...")
		_ = os.Remove(testAppBinary)
	}()

	log.Println("Integration Test Setup: Building application...")
	godotenv.Load()
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Build successful: %s", testAppBinary)

	if err := seedTestData(); err != nil {
		log.Printf("Failed to seed test data: %v", err)
		os.Exit(1)
	}
	defer cleanupTestData()

	appCmd := exec.Command(testAppBinary, "-m", "all")
	appCmd.Env = append(os.Environ(),
		"API_PORT="+testAppPort,
		"MONGO_URI="+testMongoURI(),
		"MONGO_DB_NAME="+testMongoDB,
		"JWT_SECRET="+testJwtSecret,
		"GIN_MODE=release",
		"MOCK_SERVICES=true",
		"URGENT_RACE_DELAY_SECONDS=1",
		"TIER_DELAY_SECONDS=1",
		"RATE_LIMIT_SOFT_BUCKET_SIZE=50",
		"RATE_LIMIT_SOFT_REFILL_RATE=50",
		"RATE_LIMIT_HARD_BUCKET_SIZE=100",
		"RATE_LIMIT_HARD_REFILL_RATE=100",
		"REDIS_ADDR=localhost:6379",
		"SMTP_FROM_ADDRESS=test@example.com",
	)
	appCmd.Stderr = os.Stderr
	appCmd.Stdout = os.Stdout

	log.Println("Integration Test Setup: Starting application process...")
	if err := appCmd.Start(); err != nil {
		log.Printf("Failed to start application process: %v", err)
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Application started (PID: %d)...", appCmd.Process.Pid)

	defer func() {
		log.Println("Integration Test Teardown: Shutting down application...")
		if processErr := appCmd.Process.Signal(syscall.SIGTERM); processErr != nil {
			log.Printf("Integration Test Teardown: Failed to send SIGTERM: %v. Killing.", processErr)
			_ = appCmd.Process.Kill()
		} else {
			_, waitErr := appCmd.Process.Wait()
			if waitErr != nil && waitErr.Error() != "signal: killed" && waitErr.Error() != "exit status 1" {
				log.Printf("Integration Test Teardown: Error waiting for process exit: %v", waitErr)
			}
		}
		log.Println("Integration Test Teardown: Application stopped.")
	}()

	log.Printf("Integration Test Setup: Waiting for application at %s...", pingEndpoint)
	startTime := time.Now()
	ready := false
	for time.Since(startTime) < startupTimeout {
		resp, err := http.Get(pingEndpoint)
		if err == nil && resp.StatusCode == http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if string(bodyBytes) == "pong" {
				log.Println("Integration Test Setup: Application is ready!")
				ready = true
				break
			}
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !ready {
		log.Printf("Application failed to start within %v", startupTimeout)
		os.Exit(1)
	}

	// Give the background worker a moment to register its handlers.
	time.Sleep(2 * time.Second)

	log.Println("Integration Test Setup: Running tests...")
	exitCode := m.Run()
	log.Printf("Integration Test Teardown: Tests finished with exit code %d.", exitCode)
}

func seedTestData() error {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURI()))
	if err != nil {
		return fmt.Errorf("failed to connect for seeding: %w", err)
	}
	defer client.Disconnect(context.Background())

	database := client.Database(testMongoDB)
	for _, coll := range []string{"rfqs", "rfq_broadcasts", "rfq_responses", "providers"} {
		_ = database.Collection(coll).Drop(context.Background())
	}

	provider := models.Provider{
		ID:           testProviderID,
		Name:         "Integration Forge",
		ContactEmail: "forge@example.com",
		Timezone:     "UTC",
		Tier:         models.TierVerifiedPartner,
		IsActive:     true,
		Categories:   []string{"casting"},
	}
	_, err = database.Collection("providers").InsertOne(context.Background(), provider)
	if err != nil {
		return fmt.Errorf("failed to seed provider: %w", err)
	}
	return nil
}

func cleanupTestData() {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURI()))
	if err != nil {
		log.Printf("Cleanup: failed to connect: %v", err)
		return
	}
	defer client.Disconnect(context.Background())
	_ = client.Database(testMongoDB).Drop(context.Background())
}

func tokenFor(t *testing.T, userID string) string {
	token, err := auth.GenerateJWT(userID, false, testJwtSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, testAppURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func TestIntegration_Ping(t *testing.T) {
	resp, err := http.Get(pingEndpoint)
	assert.NoError(t, err)
	if err == nil {
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestIntegration_AuthRequired(t *testing.T) {
	resp, _ := doRequest(t, http.MethodGet, "/v1/rfq", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestIntegration_UrgentCommodityRace runs the whole pipeline: create an
// urgent commodity RFQ, wait for the background worker to broadcast it,
// accept as the seeded supplier and confirm the award.
func TestIntegration_UrgentCommodityRace(t *testing.T) {
	buyerToken := tokenFor(t, testBuyerID)
	providerToken := tokenFor(t, testProviderID)

	resp, body := doRequest(t, http.MethodPost, "/v1/rfq", buyerToken, map[string]interface{}{
		"rfq_type": "commodity",
		"title":    "2000 cast housings",
		"category": "casting",
		"urgency":  "urgent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "create response should carry the RFQ")
	rfqID, _ := data["id"].(string)
	require.NotEmpty(t, rfqID)

	// The race opens after URGENT_RACE_DELAY_SECONDS=1; the worker then
	// broadcasts and flips the RFQ to bidding.
	deadline := time.Now().Add(20 * time.Second)
	bidding := false
	for time.Now().Before(deadline) {
		resp, body = doRequest(t, http.MethodGet, "/v1/rfq/"+rfqID+"/race", buyerToken, nil)
		if resp.StatusCode == http.StatusOK {
			if status, ok := body["data"].(map[string]interface{}); ok {
				if status["rfq_status"] == string(models.RFQStatusBidding) {
					bidding = true
					break
				}
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.True(t, bidding, "RFQ should reach bidding via the background broadcast")

	resp, body = doRequest(t, http.MethodPost, "/v1/rfq/"+rfqID+"/accept", providerToken, map[string]interface{}{
		"quoted_price": 4200.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, outcome["awarded"], "first accept on a commodity RFQ wins")

	// A second accept from the same supplier is a duplicate/terminal-state
	// rejection, never a second award.
	resp, _ = doRequest(t, http.MethodPost, "/v1/rfq/"+rfqID+"/accept", providerToken, map[string]interface{}{
		"quoted_price": 4100.0,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The winner is visible in the database, not just the API response.
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURI()))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	var rfq models.RFQ
	err = client.Database(testMongoDB).Collection("rfqs").
		FindOne(context.Background(), bson.M{"_id": rfqID}).Decode(&rfq)
	require.NoError(t, err)
	assert.Equal(t, models.RFQStatusAwarded, rfq.Status)
	require.NotNil(t, rfq.AwardedTo)
	assert.Equal(t, testProviderID, *rfq.AwardedTo)
}
