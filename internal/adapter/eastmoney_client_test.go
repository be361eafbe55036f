package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfunds/internal/domain"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }

func newEastmoneyServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/js/161725.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `jsonpgz({"fundcode":"161725","name":"Liquor Index","jzrq":"2024-03-01","dwjz":"1.2345","gsz":"1.2400","gszzl":"0.45","gztime":"2024-03-04 10:00"});`)
	})
	mux.HandleFunc("/js/000000.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `jsonpgz();`)
	})
	mux.HandleFunc("/js/500500.js", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	mux.HandleFunc("/FundMNewApi/FundMNBasicInformation", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("FCODE") != "161725" {
			fmt.Fprint(w, `{"Datas":{"InverstPositionList":[]}}`)
			return
		}
		fmt.Fprint(w, `{"Datas":{"InverstPositionList":[
			{"GPDM":"600519","GPNM":"Moutai","JZBL":"15.20"},
			{"GPDM":"000858","GPNM":"Wuliangye","JZBL":"12.10"}
		]}}`)
	})
	mux.HandleFunc("/api/qt/ulist.np/get", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.600519,0.000858", r.URL.Query().Get("secids"))
		fmt.Fprint(w, `{"data":{"diff":[
			{"f12":"600519","f2":1700.5,"f3":1.25},
			{"f12":"000858","f2":"-","f3":"-"}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEastmoneyClient_FetchFundMetadata(t *testing.T) {
	srv := newEastmoneyServer(t)
	c := NewEastmoneyClient(srv.URL, time.Second, fixedNow)

	fund, err := c.FetchFundMetadata(context.Background(), "161725")
	require.NoError(t, err)
	assert.Equal(t, "161725", fund.FundCode)
	assert.Equal(t, "Liquor Index", fund.FundName)
	assert.InDelta(t, 1.2345, fund.LatestNav, 1e-9)
}

func TestEastmoneyClient_FetchFundMetadata_Errors(t *testing.T) {
	srv := newEastmoneyServer(t)
	c := NewEastmoneyClient(srv.URL, time.Second, fixedNow)

	_, err := c.FetchFundMetadata(context.Background(), "000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.FetchFundMetadata(context.Background(), "500500")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = c.FetchFundMetadata(context.Background(), "999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEastmoneyClient_FetchHoldings(t *testing.T) {
	srv := newEastmoneyServer(t)
	c := NewEastmoneyClient(srv.URL, time.Second, fixedNow)

	holdings, err := c.FetchHoldings(context.Background(), "161725")
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, "600519", holdings[0].StockCode)
	assert.InDelta(t, 15.2, holdings[0].HoldingRatio, 1e-9)
	assert.InDelta(t, 1700.5, holdings[0].StockPrice, 1e-9)
	assert.InDelta(t, 1.25, holdings[0].DayGrowth, 1e-9)

	// suspended stock keeps its ratio with no quote
	assert.Equal(t, "Wuliangye", holdings[1].StockName)
	assert.Zero(t, holdings[1].StockPrice)
	assert.Zero(t, holdings[1].DayGrowth)
}

func TestEastmoneyClient_FetchHoldings_Empty(t *testing.T) {
	srv := newEastmoneyServer(t)
	c := NewEastmoneyClient(srv.URL, time.Second, fixedNow)

	holdings, err := c.FetchHoldings(context.Background(), "110011")
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestEastmoneyClient_Unreachable(t *testing.T) {
	srv := newEastmoneyServer(t)
	url := srv.URL
	srv.Close()

	c := NewEastmoneyClient(url, time.Second, fixedNow)
	_, err := c.FetchFundMetadata(context.Background(), "161725")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestParseJSONP(t *testing.T) {
	assert.Equal(t, `{"a":1}`, parseJSONP([]byte(`cb({"a":1});`)))
	assert.Equal(t, "", parseJSONP([]byte(`cb();`)))
	assert.Equal(t, "", parseJSONP(nil))
}
