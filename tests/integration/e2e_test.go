//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/simaogato/flowviz/internal/adapter/grpc"
	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/simulation"
)

var (
	grpcClient *grpcadapter.FlowServiceClient
	grpcConn   *grpc.ClientConn
	httpBase   string
	dataDoc    *domain.Document
)

// TestMain connects to a running server started with the repository data.json
func TestMain(m *testing.M) {
	// 1. Load the document the server is expected to serve
	raw, err := os.ReadFile(getDataPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to read data document: %v", err))
	}
	dataDoc = &domain.Document{}
	if err := json.Unmarshal(raw, dataDoc); err != nil {
		panic(fmt.Sprintf("Failed to parse data document: %v", err))
	}

	// 2. Connect to gRPC Server
	grpcConn, err = grpc.NewClient(getGRPCAddress(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to gRPC server: %v", err))
	}
	defer grpcConn.Close()
	grpcClient = grpcadapter.NewFlowServiceClient(grpcConn)
	httpBase = getHTTPAddress()

	// 3. Wait for every icon to load
	if err := waitReady(30 * time.Second); err != nil {
		panic(fmt.Sprintf("Server never became ready: %v", err))
	}

	os.Exit(m.Run())
}

func waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(httpBase + "/healthz")
		if err == nil {
			var st simulation.Status
			decodeErr := json.NewDecoder(resp.Body).Decode(&st)
			resp.Body.Close()
			if decodeErr == nil && st.Ready {
				return nil
			}
			if st.Error != "" {
				return fmt.Errorf("startup failed: %s", st.Error)
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("timed out after %s", timeout)
}

// getAuthContext returns a context with authorization metadata
func getAuthContext() context.Context {
	md := metadata.New(map[string]string{
		"authorization": getAPIToken(),
	})
	return metadata.NewOutgoingContext(context.Background(), md)
}

func getAPIToken() string {
	if token := os.Getenv("API_TOKEN"); token != "" {
		return token
	}
	return "dev-token"
}

// getDataPath returns the data document the server was started with
func getDataPath() string {
	if path := os.Getenv("DATA_PATH"); path != "" {
		return path
	}
	return "../../data.json"
}

// getGRPCAddress returns the gRPC server address from environment or defaults
func getGRPCAddress() string {
	addr := os.Getenv("GRPC_ADDRESS")
	if addr == "" {
		addr = "localhost:9090"
	}
	return addr
}

// getHTTPAddress returns the HTTP server base URL from environment or defaults
func getHTTPAddress() string {
	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = "http://localhost:8080"
	}
	return strings.TrimSuffix(addr, "/")
}

func balances(scene *structpb.Struct) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, v := range scene.GetFields()["entities"].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()
		balance, err := decimal.NewFromString(fields["balance"].GetStringValue())
		if err != nil {
			return nil, err
		}
		out[fields["id"].GetStringValue()] = balance
	}
	return out, nil
}

// TestEndToEndFlow checks the stage is drawn and that transfers move money
func TestEndToEndFlow(t *testing.T) {
	ctx := getAuthContext()

	scene, err := grpcClient.GetScene(ctx)
	require.NoError(t, err)

	fields := scene.GetFields()
	assert.Len(t, fields["entities"].GetListValue().GetValues(), len(dataDoc.Entities))
	assert.Len(t, fields["legend"].GetListValue().GetValues(), len(domain.Categories()))
	assert.True(t, fields["running"].GetBoolValue())

	initial, err := balances(scene)
	require.NoError(t, err)

	// the shortest interval plus one animation is enough for a change
	require.Eventually(t, func() bool {
		current, err := grpcClient.GetScene(ctx)
		if err != nil {
			return false
		}
		now, err := balances(current)
		if err != nil {
			return false
		}
		for id, balance := range now {
			if !balance.Equal(initial[id]) {
				return true
			}
		}
		return false
	}, 20*time.Second, 250*time.Millisecond, "balances should change once transfers fire")
}

// TestMoveFlow drags an entity over HTTP and reads it back over gRPC
func TestMoveFlow(t *testing.T) {
	id := dataDoc.Entities[0].ID

	body := strings.NewReader(`{"x":321,"y":123}`)
	resp, err := http.Post(httpBase+"/api/entities/"+id+"/move", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scene, err := grpcClient.GetScene(getAuthContext())
	require.NoError(t, err)
	for _, v := range scene.GetFields()["entities"].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()
		if fields["id"].GetStringValue() != id {
			continue
		}
		position := fields["position"].GetStructValue().GetFields()
		assert.Equal(t, 321.0, position["x"].GetNumberValue())
		assert.Equal(t, 123.0, position["y"].GetNumberValue())
	}

	// restore the original layout
	_, err = grpcClient.MoveEntity(getAuthContext(), id, dataDoc.Entities[0].X, dataDoc.Entities[0].Y)
	require.NoError(t, err)
}

// TestNegativeScenarios tests error handling for invalid inputs
func TestNegativeScenarios(t *testing.T) {
	ctx := getAuthContext()

	t.Run("UnknownEntity", func(t *testing.T) {
		_, err := grpcClient.MoveEntity(ctx, "does-not-exist", 1, 1)
		require.Error(t, err)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := grpcClient.MoveEntity(ctx, "", 1, 1)
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := grpcClient.GetScene(context.Background())
		require.Error(t, err)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}

// TestReadFlow compares the table over gRPC and HTTP with the document
func TestReadFlow(t *testing.T) {
	rows, err := grpcClient.ListTransfers(getAuthContext())
	require.NoError(t, err)
	require.Len(t, rows.GetValues(), len(dataDoc.Transfers))

	resp, err := http.Get(httpBase + "/api/table")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var httpRows []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&httpRows))
	require.Len(t, httpRows, len(dataDoc.Transfers))

	for i, v := range rows.GetValues() {
		fields := v.GetStructValue().GetFields()
		assert.Equal(t, httpRows[i]["amount"], fields["amount"].GetStringValue())
		assert.Equal(t, string(dataDoc.Transfers[i].Type), fields["type"].GetStringValue())
		assert.True(t, strings.HasPrefix(fields["amount"].GetStringValue(), "R$ "))
	}
}
