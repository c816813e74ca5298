package ledger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pal/internal/ledger"
)

func TestExplorerTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "account", r.URL.Query().Get("module"))
		require.Equal(t, "txlist", r.URL.Query().Get("action"))
		require.Equal(t, wallet, r.URL.Query().Get("address"))
		require.Equal(t, "key123", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"1","message":"OK","result":[
			{"timeStamp":"1704276000","from":"0xother","to":"` + wallet + `","value":"2000000000000000000"},
			{"timeStamp":"garbage","from":"0xa","to":"0xb","value":"1"}
		]}`))
	}))
	defer srv.Close()

	client := ledger.NewExplorerClient("key123")
	client.BaseURL = srv.URL
	txs, err := client.Transactions(context.Background(), wallet)
	require.NoError(t, err)
	// the unparseable timestamp row is skipped
	require.Len(t, txs, 1)
	require.Equal(t, int64(1704276000), txs[0].Timestamp)
	require.Equal(t, "2000000000000000000", txs[0].Value)
}

func TestExplorerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":[]}`))
	}))
	defer srv.Close()

	client := ledger.NewExplorerClient("")
	client.BaseURL = srv.URL
	_, err := client.Transactions(context.Background(), wallet)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NOTOK")
}

func TestTransactionsOrSampleFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := ledger.NewExplorerClient("")
	client.BaseURL = srv.URL
	txs := client.TransactionsOrSample(context.Background(), wallet)
	require.Len(t, txs, 60)
}
