package parkhub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/loader"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIURL)
	}

	u, err = parseBaseURL("https://api.example.com:8443/v1?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "https://api.example.com:8443" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestClient_ListEndpointsEncodeQueries(t *testing.T) {
	t.Parallel()

	var (
		gotLots    url.Values
		gotEntries url.Values
		gotQuote   url.Values
		gotAuth    string
		gotAgent   string
		gotReqID   string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/parking-lots/":
			gotLots = r.URL.Query()
			_ = json.NewEncoder(w).Encode([]ParkingLot{{ID: 1, Name: "Centro"}, {ID: 2, Name: "Praia"}})
		case "/entries/":
			gotEntries = r.URL.Query()
			_ = json.NewEncoder(w).Encode([]Entry{{ID: 9, Plate: "ABC1D23", EntranceDate: "2024-03-10T15:00:00"}})
		case "/parking-lots/4/current-price":
			gotQuote = r.URL.Query()
			_, _ = w.Write([]byte(`{"price_cents": 1250}`))
		case "/vehicles/active":
			_, _ = w.Write([]byte(`[{"vehicle":{"id":3,"plate":"ABC1234","name":"Carro","country":"BR"},"company":{"id":5,"name":"Estapar"},"current_price_cents":null,"entrance_date":"2024-03-10T13:00:00Z"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithTokenSource(staticToken("tok-123")))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	lots, err := c.ListParkingLots(ctx, loader.PageRequest{Skip: 20, Limit: 10})
	if err != nil {
		t.Fatalf("ListParkingLots returned error: %v", err)
	}
	if len(lots) != 2 || lots[1].Name != "Praia" {
		t.Fatalf("ListParkingLots = %#v, want 2 lots", lots)
	}
	if gotLots.Get("skip") != "20" || gotLots.Get("limit") != "10" {
		t.Fatalf("ListParkingLots query = %v, want skip=20 limit=10", gotLots)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if !strings.HasPrefix(gotAgent, "parkhub-tui/") {
		t.Fatalf("User-Agent = %q, want parkhub-tui/*", gotAgent)
	}
	if _, err := uuid.Parse(gotReqID); err != nil {
		t.Fatalf("X-Request-ID = %q, want a UUID: %v", gotReqID, err)
	}

	start := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	entries, err := c.ListEntries(ctx, loader.PageRequest{Skip: 0, Limit: 5}, EntryFilter{Start: start, End: start.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListEntries returned error: %v", err)
	}
	if len(entries) != 1 || !entries[0].Open() {
		t.Fatalf("ListEntries = %#v, want one open entry", entries)
	}
	if gotEntries.Get("start_date") != "2024-03-10T03:00:00Z" ||
		gotEntries.Get("end_date") != "2024-03-11T03:00:00Z" ||
		gotEntries.Get("skip") != "0" ||
		gotEntries.Get("limit") != "5" {
		t.Fatalf("ListEntries query = %v, want range and page encoded", gotEntries)
	}

	quote, err := c.CurrentPrice(ctx, 4, 6, 13)
	if err != nil {
		t.Fatalf("CurrentPrice returned error: %v", err)
	}
	if !quote.PriceCents.Valid || quote.PriceCents.Int64 != 1250 {
		t.Fatalf("CurrentPrice = %#v, want 1250", quote)
	}
	if gotQuote.Get("weekday") != "6" || gotQuote.Get("hour") != "13" {
		t.Fatalf("CurrentPrice query = %v, want weekday=6 hour=13", gotQuote)
	}

	sessions, err := c.ListActiveSessions(ctx)
	if err != nil {
		t.Fatalf("ListActiveSessions returned error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].CurrentPriceCents.Valid || sessions[0].Company.Name != "Estapar" {
		t.Fatalf("ListActiveSessions = %#v, want one session with null price", sessions)
	}
	want := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	if got := sessions[0].EnteredAt(); !got.Equal(want) {
		t.Fatalf("EnteredAt = %v, want %v", got, want)
	}
}

func TestClient_ListMethodsAreFetchFuncs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	var _ loader.FetchFunc[ParkingLot] = c.ListParkingLots
	var _ loader.FetchFunc[ParkingLot] = c.ListMyParkingLots
	var _ loader.FetchFunc[Vehicle] = c.ListVehicles
}

func TestClient_NonArrayListIsInvalidResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/vehicles/":
			_, _ = w.Write([]byte(`{"items": []}`))
		case "/vehicles/active":
			_, _ = w.Write([]byte(`null`))
		case "/users/me":
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.ListVehicles(ctx, loader.PageRequest{Limit: 10}); !errors.Is(err, apperr.ErrInvalidResponse) {
		t.Fatalf("ListVehicles error = %v, want ErrInvalidResponse", err)
	}
	if _, err := c.ListActiveSessions(ctx); !errors.Is(err, apperr.ErrInvalidResponse) {
		t.Fatalf("ListActiveSessions error = %v, want ErrInvalidResponse", err)
	}
	_, err = c.Me(ctx)
	if !errors.Is(err, apperr.ErrInvalidResponse) || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Me error = %v, want decode response error", err)
	}
}

func TestClient_HTTPErrorsCarryDetail(t *testing.T) {
	t.Parallel()

	var unauthorized atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/entries/":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail": "Veículo já está no estacionamento"}`))
		case "/prices/":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail": [{"loc": ["body","end_hour"], "msg": "end_hour must be greater"}]}`))
		case "/users/me":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Not authenticated"}`))
		case "/vehicles/active":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithUnauthorizedHandler(func() { unauthorized.Add(1) }))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.RegisterEntry(ctx, EntryInput{Plate: "abc-1d23", ParkingLotID: 1})
	var apiErr *apperr.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("RegisterEntry error = %v, want 400 APIError", err)
	}
	if got := apperr.Message(err); got != "Veículo já está no estacionamento" {
		t.Fatalf("Message = %q, want detail verbatim", got)
	}

	_, err = c.CreatePrice(ctx, PriceInput{ParkingLotID: 1, Weekday: 0, StartHour: 8, EndHour: 18, PriceCents: 500})
	if got := apperr.Message(err); got != "end_hour must be greater" {
		t.Fatalf("Message = %q, want joined validation msg", got)
	}

	_, err = c.Me(ctx)
	if !apperr.IsUnauthorized(err) {
		t.Fatalf("Me error = %v, want unauthorized", err)
	}
	if unauthorized.Load() != 1 {
		t.Fatalf("unauthorized handler calls = %d, want 1", unauthorized.Load())
	}

	_, err = c.ListActiveSessions(ctx)
	if got := apperr.Message(err); got != apperr.MsgServer {
		t.Fatalf("Message = %q, want %q", got, apperr.MsgServer)
	}
	if !strings.Contains(err.Error(), "returned status Internal Server Error") {
		t.Fatalf("error = %v, want status text", err)
	}
}

func TestClient_PostNormalizesAndSendsBody(t *testing.T) {
	t.Parallel()

	var got VehicleInput
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost || r.URL.Path != "/vehicles/" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Vehicle{ID: 77, Plate: got.Plate, Name: got.Name, Country: got.Country})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	v, err := c.CreateVehicle(context.Background(), VehicleInput{Plate: " abc 1d23 ", Name: " Fusca ", Country: "br"})
	if err != nil {
		t.Fatalf("CreateVehicle returned error: %v", err)
	}
	if got.Plate != "ABC1D23" || got.Country != "BR" || got.Name != "Fusca" {
		t.Fatalf("request body = %#v, want normalized input", got)
	}
	if v.ID != 77 {
		t.Fatalf("CreateVehicle = %#v, want id 77", v)
	}
	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", contentType)
	}
}

func TestClient_ValidationStopsRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"bad plate", func() error {
			_, err := c.CreateVehicle(ctx, VehicleInput{Plate: "12", Country: "BR"})
			return err
		}, "plate"},
		{"bad country", func() error {
			_, err := c.CreateVehicle(ctx, VehicleInput{Plate: "ABC1234", Country: "Brasil"})
			return err
		}, "country"},
		{"missing lot", func() error {
			_, err := c.RegisterExit(ctx, EntryInput{Plate: "ABC1234"})
			return err
		}, "parking_lot_id"},
		{"inverted hours", func() error {
			_, err := c.CreatePrice(ctx, PriceInput{ParkingLotID: 1, StartHour: 18, EndHour: 8})
			return err
		}, "end_hour"},
		{"bad email", func() error {
			_, err := c.Login(ctx, LoginRequest{Email: "nope", Password: "x", UserType: "driver"})
			return err
		}, "email"},
		{"bad profile", func() error {
			_, err := c.Login(ctx, LoginRequest{Email: "a@b.com", Password: "x", UserType: "admin"})
			return err
		}, "user_type"},
	}
	for _, tt := range tests {
		err := tt.call()
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("%s: error = %v, want *InputError", tt.name, err)
		}
		if _, ok := inputErr.Fields[tt.field]; !ok {
			t.Fatalf("%s: fields = %v, want %q", tt.name, inputErr.Fields, tt.field)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("server calls = %d, want 0", calls.Load())
	}
}

func TestClient_TransportErrorMapsToConnectionMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListActiveSessions(context.Background())
	if got := apperr.Message(err); got != apperr.MsgConnection {
		t.Fatalf("Message = %q, want %q (err=%v)", got, apperr.MsgConnection, err)
	}
}

func TestClient_LoginRequiresToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email == "ok@parkhub.com" {
			_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"bearer","user_type":"company"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	resp, err := c.Login(context.Background(), LoginRequest{Email: " ok@parkhub.com ", Password: "pw", UserType: "Company"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken != "abc" {
		t.Fatalf("AccessToken = %q, want abc", resp.AccessToken)
	}

	_, err = c.Login(context.Background(), LoginRequest{Email: "empty@parkhub.com", Password: "pw", UserType: "driver"})
	if !errors.Is(err, apperr.ErrInvalidResponse) {
		t.Fatalf("Login error = %v, want ErrInvalidResponse", err)
	}
}

func TestNormalizePlate(t *testing.T) {
	tests := map[string]string{
		"abc-1234":   "ABC1234",
		" abc 1d23 ": "ABC1D23",
		"ABC.1D23":   "ABC1D23",
	}
	for in, want := range tests {
		if got := NormalizePlate(in); got != want {
			t.Errorf("NormalizePlate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInputError_MessageIsSorted(t *testing.T) {
	err := &InputError{Fields: map[string]string{"plate": "placa inválida", "country": "país inválido"}}
	want := "dados inválidos (country: país inválido; plate: placa inválida)"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
