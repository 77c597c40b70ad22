package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/interfaces/http/middleware"
	redispkg "smartcontract-gateway.backend/pkg/redis"
	"smartcontract-gateway.backend/pkg/utils"
)

type contractServiceStub struct {
	register     func(context.Context, *entities.CreateSmartContractInput) (*entities.SmartContract, error)
	get          func(context.Context, uuid.UUID) (*entities.SmartContract, error)
	list         func(context.Context, string, utils.PaginationParams) ([]*entities.SmartContract, int64, error)
	remove       func(context.Context, uuid.UUID) error
	functions    func(context.Context, uuid.UUID) ([]entities.ContractFunction, error)
	call         func(context.Context, uuid.UUID, *entities.CallFunctionInput) (*entities.CallFunctionResult, error)
	send         func(context.Context, uuid.UUID, *entities.SendFunctionInput) (*entities.ContractTransaction, error)
	transactions func(context.Context, uuid.UUID, utils.PaginationParams) ([]*entities.ContractTransaction, int64, error)
	refresh      func(context.Context, uuid.UUID, string) (*entities.ContractTransaction, error)
}

func (s contractServiceStub) RegisterContract(ctx context.Context, input *entities.CreateSmartContractInput) (*entities.SmartContract, error) {
	return s.register(ctx, input)
}
func (s contractServiceStub) GetContract(ctx context.Context, id uuid.UUID) (*entities.SmartContract, error) {
	return s.get(ctx, id)
}
func (s contractServiceStub) ListContracts(ctx context.Context, chainID string, pagination utils.PaginationParams) ([]*entities.SmartContract, int64, error) {
	return s.list(ctx, chainID, pagination)
}
func (s contractServiceStub) DeleteContract(ctx context.Context, id uuid.UUID) error {
	return s.remove(ctx, id)
}
func (s contractServiceStub) ListFunctions(ctx context.Context, id uuid.UUID) ([]entities.ContractFunction, error) {
	return s.functions(ctx, id)
}
func (s contractServiceStub) CallFunction(ctx context.Context, id uuid.UUID, input *entities.CallFunctionInput) (*entities.CallFunctionResult, error) {
	return s.call(ctx, id, input)
}
func (s contractServiceStub) SendFunction(ctx context.Context, id uuid.UUID, input *entities.SendFunctionInput) (*entities.ContractTransaction, error) {
	return s.send(ctx, id, input)
}
func (s contractServiceStub) ListTransactions(ctx context.Context, id uuid.UUID, pagination utils.PaginationParams) ([]*entities.ContractTransaction, int64, error) {
	return s.transactions(ctx, id, pagination)
}
func (s contractServiceStub) RefreshTransactionStatus(ctx context.Context, id uuid.UUID, txHash string) (*entities.ContractTransaction, error) {
	return s.refresh(ctx, id, txHash)
}

func newContractRouter(stub contractServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ContractHandler{usecase: stub}
	r := gin.New()
	r.POST("/contracts", h.RegisterContract)
	r.GET("/contracts", h.ListContracts)
	r.GET("/contracts/:id", h.GetContract)
	r.DELETE("/contracts/:id", h.DeleteContract)
	r.GET("/contracts/:id/functions", h.ListFunctions)
	r.POST("/contracts/:id/call", h.CallFunction)
	r.POST("/contracts/:id/transact", h.SendFunction)
	r.GET("/contracts/:id/transactions", h.ListTransactions)
	r.GET("/contracts/:id/transactions/:txHash", h.GetTransaction)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestContractHandler_RegisterContract(t *testing.T) {
	id := uuid.New()
	var got *entities.CreateSmartContractInput
	r := newContractRouter(contractServiceStub{
		register: func(_ context.Context, input *entities.CreateSmartContractInput) (*entities.SmartContract, error) {
			got = input
			if input.ChainID == "eip155:1" {
				return nil, domainerrors.ErrUnsupportedChain
			}
			return &entities.SmartContract{ID: id, Name: input.Name, ChainID: "eip155:8453"}, nil
		},
	})

	w := doJSON(r, http.MethodPost, "/contracts", `{"name":"Token","chainId":"8453","contractAddress":"0x1","abi":[{"type":"function","name":"f"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	assert.JSONEq(t, `[{"type":"function","name":"f"}]`, string(got.ABI))

	w = doJSON(r, http.MethodPost, "/contracts", `{"name":"Token","chainId":"eip155:1","contractAddress":"0x1","abi":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPost, "/contracts", `{"chainId":"8453"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractHandler_GetListDelete(t *testing.T) {
	id := uuid.New()
	r := newContractRouter(contractServiceStub{
		get: func(_ context.Context, got uuid.UUID) (*entities.SmartContract, error) {
			if got != id {
				return nil, domainerrors.ErrNotFound
			}
			return &entities.SmartContract{ID: id}, nil
		},
		list: func(_ context.Context, chainID string, p utils.PaginationParams) ([]*entities.SmartContract, int64, error) {
			assert.Equal(t, "eip155:1", chainID)
			assert.Equal(t, utils.PaginationParams{Page: 2, Limit: 5}, p)
			return []*entities.SmartContract{{ID: id}}, 6, nil
		},
		remove: func(_ context.Context, got uuid.UUID) error {
			if got != id {
				return domainerrors.ErrNotFound
			}
			return nil
		},
	})

	w := doJSON(r, http.MethodGet, "/contracts/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/contracts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/contracts/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/contracts?chainId=eip155:1&page=2&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items []entities.SmartContract `json:"items"`
		Meta  utils.PaginationMeta     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Meta.TotalPages)

	w = doJSON(r, http.MethodDelete, "/contracts/"+id.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/contracts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContractHandler_ListFunctions(t *testing.T) {
	r := newContractRouter(contractServiceStub{
		functions: func(context.Context, uuid.UUID) ([]entities.ContractFunction, error) {
			return []entities.ContractFunction{{Name: "balanceOf", Selector: "0x70a08231"}}, nil
		},
	})

	w := doJSON(r, http.MethodGet, "/contracts/"+uuid.NewString()+"/functions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"selector":"0x70a08231"`)
}

func TestContractHandler_CallFunction_PreservesLargeNumbers(t *testing.T) {
	var got *entities.CallFunctionInput
	r := newContractRouter(contractServiceStub{
		call: func(_ context.Context, _ uuid.UUID, input *entities.CallFunctionInput) (*entities.CallFunctionResult, error) {
			got = input
			return &entities.CallFunctionResult{Function: input.Function, Result: []interface{}{"42"}}, nil
		},
	})

	w := doJSON(r, http.MethodPost, "/contracts/"+uuid.NewString()+"/call",
		`{"function":"allowance","args":[115792089237316195423570985008687907853269984665640564039457584007913129639935],"blockTag":"latest"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"function":"allowance","result":["42"]}`, w.Body.String())

	require.Len(t, got.Args, 1)
	n, ok := got.Args[0].(json.Number)
	require.True(t, ok)
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", n.String())
}

func TestContractHandler_CallFunction_Errors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domainerrors.ErrUnknownFunction, http.StatusNotFound},
		{domainerrors.ErrEncodingFailed, http.StatusUnprocessableEntity},
		{domainerrors.ErrEmptyResponse, http.StatusBadGateway},
		{errors.New("dial tcp: connection refused"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		r := newContractRouter(contractServiceStub{
			call: func(context.Context, uuid.UUID, *entities.CallFunctionInput) (*entities.CallFunctionResult, error) {
				return nil, tc.err
			},
		})
		w := doJSON(r, http.MethodPost, "/contracts/"+uuid.NewString()+"/call", `{"function":"f"}`)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}

	r := newContractRouter(contractServiceStub{})
	w := doJSON(r, http.MethodPost, "/contracts/"+uuid.NewString()+"/call", `{"args":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodPost, "/contracts/"+uuid.NewString()+"/call", `{"function":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractHandler_SendFunction(t *testing.T) {
	r := newContractRouter(contractServiceStub{
		send: func(_ context.Context, id uuid.UUID, input *entities.SendFunctionInput) (*entities.ContractTransaction, error) {
			if input.Function == "nope" {
				return nil, domainerrors.ErrSignerNotConfigured
			}
			return &entities.ContractTransaction{ContractID: id, TxHash: "0xabc", Status: entities.ContractTransactionStatusPending}, nil
		},
	})

	w := doJSON(r, http.MethodPost, "/contracts/"+uuid.NewString()+"/transact", `{"function":"transfer","args":["0x1",1000]}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"txHash":"0xabc"`)
	assert.Contains(t, w.Body.String(), `"status":"PENDING"`)

	w = doJSON(r, http.MethodPost, "/contracts/"+uuid.NewString()+"/transact", `{"function":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestContractHandler_SendFunction_NotRecordedReturnsHash(t *testing.T) {
	srv := miniredis.RunT(t)
	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })

	sends := 0
	h := &ContractHandler{usecase: contractServiceStub{
		send: func(_ context.Context, id uuid.UUID, input *entities.SendFunctionInput) (*entities.ContractTransaction, error) {
			sends++
			tx := &entities.ContractTransaction{ContractID: id, TxHash: "0x999", Status: entities.ContractTransactionStatusPending}
			return tx, fmt.Errorf("%w: %s", domainerrors.ErrTxNotRecorded, tx.TxHash)
		},
	}}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/contracts/:id/transact", middleware.IdempotencyMiddleware(time.Hour), h.SendFunction)

	path := "/contracts/" + uuid.NewString() + "/transact"
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(`{"function":"deposit"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.IdempotencyHeader, "retry-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := post()
	require.Equal(t, http.StatusAccepted, first.Code)
	assert.Contains(t, first.Body.String(), `"txHash":"0x999"`)
	assert.Contains(t, first.Body.String(), `"warning":"transaction sent but not recorded: 0x999"`)

	second := post()
	require.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, sends)
}

func TestContractHandler_Transactions(t *testing.T) {
	r := newContractRouter(contractServiceStub{
		transactions: func(_ context.Context, _ uuid.UUID, p utils.PaginationParams) ([]*entities.ContractTransaction, int64, error) {
			assert.Equal(t, utils.DefaultLimit, p.Limit)
			return []*entities.ContractTransaction{{TxHash: "0x1"}}, 1, nil
		},
		refresh: func(_ context.Context, _ uuid.UUID, txHash string) (*entities.ContractTransaction, error) {
			switch txHash {
			case "0xmissing":
				return nil, domainerrors.ErrNotFound
			case "0xdbdown":
				return nil, errors.New("connection reset by peer")
			case "0xnodedown":
				return nil, domainerrors.BadGateway(errors.New("dial tcp: refused"))
			}
			return &entities.ContractTransaction{TxHash: txHash, Status: entities.ContractTransactionStatusConfirmed}, nil
		},
	})

	id := uuid.NewString()
	w := doJSON(r, http.MethodGet, "/contracts/"+id+"/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalCount":1`)

	w = doJSON(r, http.MethodGet, "/contracts/"+id+"/transactions/0xfeed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"CONFIRMED"`)

	w = doJSON(r, http.MethodGet, "/contracts/"+id+"/transactions/0xmissing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/contracts/"+id+"/transactions/0xdbdown", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ERR_INTERNAL"`)

	w = doJSON(r, http.MethodGet, "/contracts/"+id+"/transactions/0xnodedown", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ERR_NODE"`)
}
