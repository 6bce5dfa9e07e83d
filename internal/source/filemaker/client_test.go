package filemaker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	t       *testing.T
	records []map[string]any

	mu       sync.Mutex
	logins   int
	logouts  []string
	finds    []findRequest
	noRecord bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/fmi/data/vLatest/databases/JOBS/sessions":
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"response":{},"messages":[{"code":"212","message":"Invalid user account and/or password"}]}`))
			return
		}
		f.logins++
		_, _ = w.Write([]byte(`{"response":{"token":"tok-1"},"messages":[{"code":"0","message":"OK"}]}`))

	case r.Method == http.MethodPost && r.URL.Path == "/fmi/data/vLatest/databases/JOBS/layouts/jobs_api/_find":
		assert.Equal(f.t, "Bearer tok-1", r.Header.Get("Authorization"))
		var req findRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.finds = append(f.finds, req)

		if f.noRecord {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"response":{},"messages":[{"code":"401","message":"No records match the request"}]}`))
			return
		}

		var offset, limit int
		_, _ = fmt.Sscan(req.Offset, &offset)
		_, _ = fmt.Sscan(req.Limit, &limit)
		start := offset - 1
		end := start + limit
		if end > len(f.records) {
			end = len(f.records)
		}
		data := make([]map[string]any, 0)
		for i := start; i < end; i++ {
			data = append(data, map[string]any{"recordId": fmt.Sprint(i + 1), "fieldData": f.records[i]})
		}
		body, _ := json.Marshal(map[string]any{
			"response": map[string]any{
				"dataInfo": map[string]any{"foundCount": len(f.records), "returnedCount": len(data)},
				"data":     data,
			},
			"messages": []message{{Code: "0", Message: "OK"}},
		})
		_, _ = w.Write(body)

	case r.Method == http.MethodDelete:
		f.logouts = append(f.logouts, r.URL.Path)
		_, _ = w.Write([]byte(`{"response":{},"messages":[{"code":"0","message":"OK"}]}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(srv *httptest.Server, mutate func(*Config)) *Client {
	cfg := &Config{
		Host:     srv.URL,
		Database: "JOBS",
		Layout:   "jobs_api",
		Username: "api",
		Password: "pw",
		PageSize: 2,
		Location: time.UTC,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewClient(cfg)
}

func record(id any) map[string]any {
	return map[string]any{
		fieldJobID:      id,
		fieldStatus:     "Active",
		fieldType:       "Delivery",
		fieldTruckID:    "81.0",
		fieldRouteID:    float64(7),
		fieldDriverID:   "D-12 ",
		fieldDriverName: "Pat Lee",
		fieldCustomer:   "Acme",
		fieldAddress:    "1 Main St, Denver, CO",
		fieldJobDate:    "03/12/2024",
		fieldArrival:    "09:30:00",
		fieldCompletion: "",
		fieldDueDate:    "03/13/2024",
	}
}

func TestListJobs_PagesAndMaps(t *testing.T) {
	fake := &fakeServer{t: t, records: []map[string]any{record(float64(900001)), record("900002"), record("900003"), {fieldStatus: "Active"}}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	jobs, err := newTestClient(srv, nil).ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 3, "the record without a job id is skipped")

	assert.Len(t, fake.finds, 2)
	assert.Equal(t, "1", fake.finds[0].Offset)
	assert.Equal(t, "3", fake.finds[1].Offset)
	assert.Equal(t, 1, fake.logins)
	assert.Equal(t, []string{"/fmi/data/vLatest/databases/JOBS/sessions/tok-1"}, fake.logouts)

	j := jobs[0]
	assert.Equal(t, int64(900001), j.ID)
	assert.Equal(t, "Active", j.Status)
	assert.Equal(t, "Delivery", j.Type)
	assert.Equal(t, "81", j.TruckID)
	assert.Equal(t, "7", j.RouteID)
	assert.Equal(t, "D-12", j.DriverID)
	assert.Equal(t, "Pat Lee", j.DriverName)
	assert.Equal(t, "Acme", j.Customer)
	assert.Equal(t, "1 Main St, Denver, CO", j.Address)

	require.NotNil(t, j.Date)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), *j.Date)
	require.NotNil(t, j.ArrivalTime)
	assert.Equal(t, time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC), *j.ArrivalTime)
	assert.Nil(t, j.CompletionTime)
	require.NotNil(t, j.DueDate)
	assert.Equal(t, time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC), *j.DueDate)

	assert.Equal(t, int64(900002), jobs[1].ID)
}

func TestListJobs_MaxJobs(t *testing.T) {
	fake := &fakeServer{t: t, records: []map[string]any{record("1"), record("2"), record("3"), record("4"), record("5")}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	jobs, err := newTestClient(srv, func(c *Config) { c.MaxJobs = 3 }).ListJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	require.Len(t, fake.finds, 2)
	assert.Equal(t, "1", fake.finds[1].Limit)
}

func TestListJobs_NoRecordsIsEmpty(t *testing.T) {
	fake := &fakeServer{t: t, noRecord: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	jobs, err := newTestClient(srv, nil).ListJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Len(t, fake.logouts, 1)
}

func TestListJobs_LoginFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{t: t})
	defer srv.Close()

	_, err := newTestClient(srv, func(c *Config) { c.Password = "wrong" }).ListJobs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid user account")
}

func TestListJobs_ActiveOnlyQuery(t *testing.T) {
	fake := &fakeServer{t: t, records: []map[string]any{record("1")}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(srv, func(c *Config) { c.ActiveOnly = true }).ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, fake.finds, 1)

	q := fake.finds[0].Query
	require.Len(t, q, 1+len(omittedStatuses))
	assert.Equal(t, "*", q[0][fieldJobID])
	assert.Equal(t, "==Complete", q[1][fieldStatus])
	assert.Equal(t, "true", q[1]["omit"])
}

func TestParsing(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "81", normalizeID("81.0"))
	assert.Equal(t, "81", normalizeID(" 81 "))
	assert.Equal(t, "R-7", normalizeID("R-7"))
	assert.Equal(t, "", normalizeID(""))

	id, ok := parseID("900001.0")
	assert.True(t, ok)
	assert.Equal(t, int64(900001), id)
	_, ok = parseID("abc")
	assert.False(t, ok)

	assert.Nil(t, parseDate("not a date", time.UTC))
	assert.Equal(t, date, *parseDate("2024-03-12", time.UTC))

	ts := parseMoment("03/12/2024 14:05:00", nil, time.UTC)
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2024, 3, 12, 14, 5, 0, 0, time.UTC), *ts)

	tod := parseMoment("14:05", &date, time.UTC)
	require.NotNil(t, tod)
	assert.Equal(t, time.Date(2024, 3, 12, 14, 5, 0, 0, time.UTC), *tod)

	assert.Nil(t, parseMoment("14:05", nil, time.UTC), "a time of day needs a job date")

	due := parseDue("03/12/2024 08:00:00", time.UTC)
	require.NotNil(t, due)
	assert.Equal(t, 8, due.Hour())
}
