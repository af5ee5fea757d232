package itest

import (
	"net/http"
	"testing"
	"time"
)

func TestSubscribe_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)
			const admin = "itest|admin"

			// Listing is admin-only.
			{
				status, body, hdr := srv.doJSON(t, http.MethodGet, "/subscribers", "", nil)
				requireEnvelope(t, status, body, http.StatusUnauthorized, false, "인증이 필요합니다.")
				requireHeaderPresent(t, hdr, "Access-Control-Allow-Origin")
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/subscribers", "itest|stranger", nil)
				requireEnvelope(t, status, body, http.StatusUnauthorized, false, "인증이 필요합니다.")
			}

			// Invalid input never reaches the store.
			for _, bad := range []any{
				map[string]any{"email": "not-an-email"},
				map[string]any{"email": "user@example"},
				map[string]any{"email": 7},
				[]string{"a@b.co"},
			} {
				status, body, _ := srv.doJSON(t, http.MethodPost, "/subscribe", "", bad)
				requireEnvelope(t, status, body, http.StatusBadRequest, false, "유효한 이메일 주소를 입력해주세요.")
			}

			// First subscribe wins; repeats conflict.
			{
				status, body, hdr := srv.doJSON(t, http.MethodPost, "/subscribe", "", map[string]any{"email": "alice@example.com"})
				requireEnvelope(t, status, body, http.StatusOK, true, "구독이 완료되었습니다. 곧 첫 번째 뉴스레터를 받아보실 수 있습니다!")
				requireHeaderPresent(t, hdr, "Access-Control-Allow-Methods")
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/subscribe", "", map[string]any{"email": "alice@example.com"})
				requireEnvelope(t, status, body, http.StatusConflict, false, "이미 구독하신 이메일입니다.")
			}

			srv.clk.Advance(time.Minute)
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/subscribe", "", map[string]any{"email": "bob@example.com"})
				requireEnvelope(t, status, body, http.StatusOK, true, "구독이 완료되었습니다. 곧 첫 번째 뉴스레터를 받아보실 수 있습니다!")
			}

			// Listing: exactly the accepted emails, newest first.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/subscribers", admin, nil)
				if status != http.StatusOK {
					t.Fatalf("status=%d body=%s", status, string(body))
				}
				got := mustUnmarshal[struct {
					Success bool `json:"success"`
					Data    []struct {
						ID        string    `json:"id"`
						Email     string    `json:"email"`
						CreatedAt time.Time `json:"created_at"`
						Status    string    `json:"status"`
					} `json:"data"`
					Count int `json:"count"`
				}](t, body)
				if !got.Success || got.Count != 2 || len(got.Data) != 2 {
					t.Fatalf("listing=%s", string(body))
				}
				if got.Data[0].Email != "bob@example.com" || got.Data[1].Email != "alice@example.com" {
					t.Fatalf("order=%q,%q", got.Data[0].Email, got.Data[1].Email)
				}
				if !got.Data[1].CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
					t.Fatalf("created_at=%v", got.Data[1].CreatedAt)
				}
				for _, d := range got.Data {
					if d.ID == "" || d.Status != "active" {
						t.Fatalf("item=%+v", d)
					}
				}
			}

			// Routing edges.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/does-not-exist", "", nil)
				requireEnvelope(t, status, body, http.StatusNotFound, false, "요청한 엔드포인트를 찾을 수 없습니다.")
			}
			{
				status, body, hdr := srv.doJSON(t, http.MethodOptions, "/subscribe", "", nil)
				if status != http.StatusNoContent || len(body) != 0 {
					t.Fatalf("OPTIONS status=%d body=%q", status, string(body))
				}
				if got := hdr.Get("Access-Control-Max-Age"); got != "3600" {
					t.Fatalf("Access-Control-Max-Age=%q", got)
				}
			}
			{
				status, _, _ := srv.doJSON(t, http.MethodGet, "/readyz", "", nil)
				if status != http.StatusOK {
					t.Fatalf("readyz status=%d", status)
				}
			}
		})
	}
}
