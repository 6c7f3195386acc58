package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Thomas-Okram/TapTell/internal/config"
	"github.com/Thomas-Okram/TapTell/internal/media"
	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/repository/memory"
)

const (
	superKey   = "super-key-for-tests"
	testSecret = "0123456789abcdef0123"
)

type fakePhotos struct {
	folders []string
}

func (f *fakePhotos) Upload(_ context.Context, photo media.Photo) (media.Uploaded, error) {
	f.folders = append(f.folders, photo.Folder)
	return media.Uploaded{URL: "https://img.example/" + photo.Folder + "/a.jpg", ExternalID: photo.Folder + "/a"}, nil
}

func (f *fakePhotos) Enabled() bool { return true }

type testApp struct {
	url string
}

func newTestApp(t *testing.T, photos media.Store) *testApp {
	t.Helper()
	store := memory.New()
	cfg := config.Config{SuperAdminKey: superKey, TokenSecret: testSecret}
	ops := operations.NewService(store, operations.Options{TokenSecret: testSecret})
	server := NewServer(cfg, store, ops, photos)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return &testApp{url: app.URL}
}

type reply struct {
	status int
	body   map[string]any
}

func (a *testApp) do(t *testing.T, method, path string, headers map[string]string, body interface{}) reply {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.url+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out := reply{status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&out.body); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return out
}

func admin(key string) map[string]string  { return map[string]string{adminKeyHeader: key} }
func device(key string) map[string]string { return map[string]string{deviceKeyHeader: key} }

func expect(t *testing.T, got reply, status int, message string) {
	t.Helper()
	if got.status != status {
		t.Fatalf("expected %d, got %d: %v", status, got.status, got.body)
	}
	if message != "" && got.body["error"] != message && got.body["message"] != message {
		t.Fatalf("expected message %q, got %v", message, got.body)
	}
}

func field(t *testing.T, body map[string]any, path ...string) any {
	t.Helper()
	var cur any = body
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("no object at %q in %v", key, body)
		}
		cur = obj[key]
	}
	return cur
}

// school creates a school plus a PIN admin and returns the school id and a
// session token for that admin.
func (a *testApp) school(t *testing.T, code string) (string, string) {
	t.Helper()
	created := a.do(t, http.MethodPost, "/api/super/schools", admin(superKey), map[string]any{"name": "School " + code, "code": code})
	expect(t, created, http.StatusOK, "")
	schoolID := field(t, created.body, "school", "id").(string)

	pinAdmin := a.do(t, http.MethodPost, "/api/super/school-admins/pin", admin(superKey), map[string]any{"name": "Office", "schoolId": schoolID, "pin": "123456"})
	expect(t, pinAdmin, http.StatusOK, "")

	login := a.do(t, http.MethodPost, "/api/admin/login-pin", nil, map[string]any{"schoolCode": strings.ToLower(code), "pin": "123456"})
	expect(t, login, http.StatusOK, "")
	return schoolID, login.body["token"].(string)
}

func TestHealthAndNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	for _, path := range []string{"/health", "/api/health"} {
		got := app.do(t, http.MethodGet, path, nil, nil)
		expect(t, got, http.StatusOK, "")
		if got.body["ok"] != true || got.body["service"] != "taptell-api" {
			t.Fatalf("unexpected health body %v", got.body)
		}
	}
	expect(t, app.do(t, http.MethodGet, "/api/nope", nil, nil), http.StatusNotFound, "Route not found")
}

func TestAdminAuthFailures(t *testing.T) {
	app := newTestApp(t, nil)
	cases := map[string]string{
		"":             "Missing x-admin-key",
		"sa_nodot":     "Invalid admin key format",
		"sa_k.wrong":   "Invalid admin key",
		"tpt_garbage":  "Invalid/expired token",
		"not-a-secret": "Invalid admin key",
	}
	for key, message := range cases {
		expect(t, app.do(t, http.MethodGet, "/api/admin/me", admin(key), nil), http.StatusUnauthorized, message)
	}

	me := app.do(t, http.MethodGet, "/api/admin/me", admin(superKey), nil)
	expect(t, me, http.StatusOK, "")
	if field(t, me.body, "admin", "role") != "SUPER_ADMIN" || field(t, me.body, "admin", "id") != nil {
		t.Fatalf("unexpected me body %v", me.body)
	}
}

func TestLoginAndScope(t *testing.T) {
	app := newTestApp(t, nil)
	schoolA, tokenA := app.school(t, "GV01")
	schoolB, _ := app.school(t, "HS02")

	me := app.do(t, http.MethodGet, "/api/admin/me", admin(tokenA), nil)
	expect(t, me, http.StatusOK, "")
	if field(t, me.body, "admin", "schoolId") != schoolA || field(t, me.body, "admin", "role") != "SCHOOL_ADMIN" {
		t.Fatalf("unexpected me body %v", me.body)
	}

	expect(t, app.do(t, http.MethodPost, "/api/admin/login-pin", nil, map[string]any{"schoolCode": "GV01", "pin": "654321"}), http.StatusUnauthorized, "Invalid PIN")
	expect(t, app.do(t, http.MethodPost, "/api/admin/login-pin", nil, map[string]any{"schoolCode": "GV01"}), http.StatusBadRequest, "schoolCode and pin are required")

	student := map[string]any{"name": "Asha", "className": "5", "sec": "A", "rollNumber": "1", "house": "Red", "parentWhatsapp": "+919800000001"}
	expect(t, app.do(t, http.MethodPost, "/api/students", admin(tokenA), student), http.StatusOK, "")
	student["schoolId"] = schoolB
	student["name"] = "Bela"
	expect(t, app.do(t, http.MethodPost, "/api/students", admin(superKey), student), http.StatusOK, "")

	// A school admin asking for another school still sees its own.
	list := app.do(t, http.MethodGet, "/api/students?schoolId="+schoolB, admin(tokenA), nil)
	expect(t, list, http.StatusOK, "")
	students := list.body["students"].([]any)
	if len(students) != 1 || students[0].(map[string]any)["name"] != "Asha" {
		t.Fatalf("expected only own student, got %v", students)
	}

	expect(t, app.do(t, http.MethodGet, "/api/students", admin(superKey), nil), http.StatusBadRequest, "schoolId is required for SUPER_ADMIN")
	expect(t, app.do(t, http.MethodGet, "/api/students?schoolId=abc", admin(superKey), nil), http.StatusBadRequest, "Invalid schoolId")
	expect(t, app.do(t, http.MethodGet, "/api/super/schools", admin(tokenA), nil), http.StatusForbidden, "Forbidden")
	expect(t, app.do(t, http.MethodGet, "/api/admin/dashboard", admin(superKey), nil), http.StatusBadRequest,
		"School not resolved. SCHOOL_ADMIN uses token scope; SUPER_ADMIN must pass schoolId or schoolCode.")

	dash := app.do(t, http.MethodGet, "/api/admin/dashboard?schoolCode=hs02", admin(superKey), nil)
	expect(t, dash, http.StatusOK, "")
	if field(t, dash.body, "school", "id") != schoolB {
		t.Fatalf("expected dashboard for school B, got %v", dash.body)
	}
}

func TestKioskMarkFlow(t *testing.T) {
	app := newTestApp(t, nil)
	_, token := app.school(t, "GV01")

	created := app.do(t, http.MethodPost, "/api/students", admin(token), map[string]any{
		"name": "Asha", "className": "5", "section": "A", "rollNumber": "1", "house": "Red", "parentWhatsapp": "+919800000001",
	})
	expect(t, created, http.StatusOK, "")
	if field(t, created.body, "student", "sec") != "A" {
		t.Fatalf("expected section alias to be accepted, got %v", created.body)
	}
	studentID := field(t, created.body, "student", "id").(string)

	card := app.do(t, http.MethodPost, "/api/cards", admin(token), map[string]any{"uid": "04A1B2"})
	expect(t, card, http.StatusOK, "")
	cardID := field(t, card.body, "card", "id").(string)
	expect(t, app.do(t, http.MethodPost, "/api/cards", admin(token), map[string]any{"uid": "04A1B2"}), http.StatusConflict, "")

	dev := app.do(t, http.MethodPost, "/api/devices", admin(token), map[string]any{"name": "Gate", "location": "Main"})
	expect(t, dev, http.StatusOK, "")
	deviceKey := field(t, dev.body, "device", "deviceKey").(string)

	auth := app.do(t, http.MethodPost, "/api/kiosk/auth/test", device(deviceKey), nil)
	expect(t, auth, http.StatusOK, "")
	expect(t, app.do(t, http.MethodPost, "/api/kiosk/auth/test", nil, nil), http.StatusUnauthorized, "Missing x-device-key")
	expect(t, app.do(t, http.MethodPost, "/api/kiosk/auth/test", device("nope"), nil), http.StatusUnauthorized, "Invalid device key")

	expect(t, app.do(t, http.MethodPost, "/api/kiosk/attendance/mark", device(deviceKey), map[string]any{"uid": "04A1B2"}), http.StatusBadRequest, "Card not assigned")
	expect(t, app.do(t, http.MethodPost, "/api/kiosk/attendance/mark", device(deviceKey), map[string]any{"uid": "FFFF"}), http.StatusNotFound, "Card not found")
	expect(t, app.do(t, http.MethodPost, "/api/kiosk/attendance/mark", device(deviceKey), map[string]any{}), http.StatusBadRequest, "uid is required")

	expect(t, app.do(t, http.MethodPost, "/api/cards/"+cardID+"/assign", admin(token), map[string]any{"studentId": studentID}), http.StatusOK, "")

	first := app.do(t, http.MethodPost, "/api/kiosk/attendance/mark", device(deviceKey), map[string]any{"uid": "04A1B2"})
	expect(t, first, http.StatusOK, "Attendance marked successfully")
	if field(t, first.body, "student", "name") != "Asha" {
		t.Fatalf("unexpected mark body %v", first.body)
	}
	date := first.body["date"].(string)
	second := app.do(t, http.MethodPost, "/api/kiosk/attendance/mark", device(deviceKey), map[string]any{"uid": "04A1B2"})
	expect(t, second, http.StatusOK, "Attendance already marked")
	if second.body["markedAt"] != first.body["markedAt"] {
		t.Fatalf("expected the first row, got %v", second.body)
	}

	dash := app.do(t, http.MethodGet, "/api/admin/dashboard?date="+date, admin(token), nil)
	expect(t, dash, http.StatusOK, "")
	if dash.body["todayAttendanceCount"] != float64(1) {
		t.Fatalf("expected one arrival, got %v", dash.body)
	}

	day := app.do(t, http.MethodGet, "/api/admin/attendance/day?date="+date, admin(token), nil)
	expect(t, day, http.StatusOK, "")
	items := day.body["items"].([]any)
	if len(items) != 1 || field(t, items[0].(map[string]any), "device", "name") != "Gate" {
		t.Fatalf("unexpected day roster %v", day.body)
	}

	list := app.do(t, http.MethodGet, "/api/attendance?date="+date+"&sec=A", admin(token), nil)
	expect(t, list, http.StatusOK, "")
	if list.body["count"] != float64(1) {
		t.Fatalf("expected one attendance row, got %v", list.body)
	}
	expect(t, app.do(t, http.MethodGet, "/api/attendance?date=01-01-2024", admin(token), nil), http.StatusBadRequest, "date must be YYYY-MM-DD")

	cards := app.do(t, http.MethodGet, "/api/cards?status=assigned", admin(token), nil)
	expect(t, cards, http.StatusOK, "")
	listed := cards.body["cards"].([]any)
	if len(listed) != 1 || field(t, listed[0].(map[string]any), "assignedStudent", "name") != "Asha" {
		t.Fatalf("expected populated card, got %v", listed)
	}

	expect(t, app.do(t, http.MethodDelete, "/api/devices/"+field(t, dev.body, "device", "id").(string), admin(token), nil), http.StatusOK, "")
	expect(t, app.do(t, http.MethodPost, "/api/kiosk/auth/test", device(deviceKey), nil), http.StatusUnauthorized, "Invalid device key")
}

func TestCardRoutes(t *testing.T) {
	app := newTestApp(t, nil)
	_, token := app.school(t, "GV01")

	student := app.do(t, http.MethodPost, "/api/students", admin(token), map[string]any{
		"name": "Asha", "className": "5", "sec": "A", "rollNumber": "1", "house": "Red", "parentWhatsapp": "+919800000001",
	})
	studentID := field(t, student.body, "student", "id").(string)
	card := app.do(t, http.MethodPost, "/api/cards", admin(token), map[string]any{"uid": "C1"})
	cardID := field(t, card.body, "card", "id").(string)

	expect(t, app.do(t, http.MethodPost, "/api/cards/assign", admin(token), map[string]any{"cardId": cardID}), http.StatusBadRequest, "studentId is required")
	assigned := app.do(t, http.MethodPost, "/api/cards/assign", admin(token), map[string]any{"cardId": cardID, "studentId": studentID})
	expect(t, assigned, http.StatusOK, "")
	if field(t, assigned.body, "card", "status") != "ASSIGNED" {
		t.Fatalf("expected assigned card, got %v", assigned.body)
	}

	unassigned := app.do(t, http.MethodPost, "/api/cards/"+cardID+"/unassign", admin(token), nil)
	expect(t, unassigned, http.StatusOK, "")
	if field(t, unassigned.body, "card", "assignedStudentId") != nil {
		t.Fatalf("expected released card, got %v", unassigned.body)
	}

	expect(t, app.do(t, http.MethodPatch, "/api/cards/"+cardID, admin(token), map[string]any{"status": "bogus"}), http.StatusBadRequest, "Invalid card status")
	expect(t, app.do(t, http.MethodDelete, "/api/cards/"+cardID, admin(token), nil), http.StatusOK, "")
	expect(t, app.do(t, http.MethodPost, "/api/cards/"+cardID+"/assign", admin(token), map[string]any{"studentId": studentID}), http.StatusBadRequest, "Card is disabled")
	expect(t, app.do(t, http.MethodPatch, "/api/cards/not-a-uuid", admin(token), map[string]any{"notes": "x"}), http.StatusBadRequest, "Invalid card id")
}

func TestSuperAdminRoutes(t *testing.T) {
	app := newTestApp(t, nil)
	schoolID, _ := app.school(t, "GV01")

	expect(t, app.do(t, http.MethodPost, "/api/super/schools", admin(superKey), map[string]any{"name": "Dup", "code": "gv01"}), http.StatusConflict, "School code already exists")
	expect(t, app.do(t, http.MethodPost, "/api/super/school-admins/pin", admin(superKey), map[string]any{"name": "X", "schoolId": schoolID, "pin": "12ab56"}), http.StatusBadRequest, "PIN must be exactly 6 digits")
	expect(t, app.do(t, http.MethodPost, "/api/super/school-admins/pin", admin(superKey), map[string]any{"name": "X"}), http.StatusBadRequest, "name and schoolId are required")

	keyAdmin := app.do(t, http.MethodPost, "/api/super/school-admins", admin(superKey), map[string]any{"name": "Legacy", "schoolId": schoolID})
	expect(t, keyAdmin, http.StatusOK, "")
	key := keyAdmin.body["key"].(string)
	me := app.do(t, http.MethodGet, "/api/admin/me", admin(key), nil)
	expect(t, me, http.StatusOK, "")
	if field(t, me.body, "admin", "schoolId") != schoolID {
		t.Fatalf("expected legacy key scoped to school, got %v", me.body)
	}

	admins := app.do(t, http.MethodGet, "/api/super/school-admins?schoolId="+schoolID, admin(superKey), nil)
	expect(t, admins, http.StatusOK, "")
	listed := admins.body["admins"].([]any)
	if len(listed) != 2 || field(t, listed[0].(map[string]any), "school", "code") != "GV01" {
		t.Fatalf("unexpected admin list %v", listed)
	}

	adminID := keyAdmin.body["adminId"].(string)
	expect(t, app.do(t, http.MethodPatch, "/api/super/school-admins/"+adminID, admin(superKey), map[string]any{"isActive": "no"}), http.StatusBadRequest, "isActive must be boolean")
	expect(t, app.do(t, http.MethodPatch, "/api/super/school-admins/"+adminID, admin(superKey), map[string]any{"isActive": false}), http.StatusOK, "")
	expect(t, app.do(t, http.MethodGet, "/api/admin/me", admin(key), nil), http.StatusUnauthorized, "Invalid admin key")

	rotated := app.do(t, http.MethodPost, "/api/super/school-admins/"+adminID+"/rotate-pin", admin(superKey), nil)
	expect(t, rotated, http.StatusOK, "")
	login := app.do(t, http.MethodPost, "/api/admin/login-pin", nil, map[string]any{"schoolCode": "GV01", "pin": rotated.body["pin"]})
	expect(t, login, http.StatusOK, "")

	expect(t, app.do(t, http.MethodDelete, "/api/super/schools/"+schoolID, admin(superKey), nil), http.StatusConflict, "")
	renamed := app.do(t, http.MethodPatch, "/api/super/schools/"+schoolID, admin(superKey), map[string]any{"name": "Renamed", "code": ""})
	expect(t, renamed, http.StatusOK, "")
	if field(t, renamed.body, "school", "name") != "Renamed" || field(t, renamed.body, "school", "code") != "GV01" {
		t.Fatalf("unexpected school update %v", renamed.body)
	}
}

func TestMediaUpload(t *testing.T) {
	off := newTestApp(t, nil)
	_, token := off.school(t, "GV01")
	dev := off.do(t, http.MethodPost, "/api/devices", admin(token), map[string]any{"name": "Gate"})
	key := field(t, dev.body, "device", "deviceKey").(string)
	expect(t, off.do(t, http.MethodPost, "/api/media/upload", device(key), map[string]any{"photoBase64": "data:image/jpeg;base64,AAAA"}), http.StatusInternalServerError, "Photo storage not configured")

	photos := &fakePhotos{}
	app := newTestApp(t, photos)
	schoolID, token := app.school(t, "GV01")
	dev = app.do(t, http.MethodPost, "/api/devices", admin(token), map[string]any{"name": "Gate"})
	key = field(t, dev.body, "device", "deviceKey").(string)

	expect(t, app.do(t, http.MethodPost, "/api/media/upload", device(key), map[string]any{}), http.StatusBadRequest, "photoBase64 required")
	expect(t, app.do(t, http.MethodPost, "/api/media/upload", device(key), map[string]any{"photoBase64": "short"}), http.StatusBadRequest, "Invalid image payload")
	expect(t, app.do(t, http.MethodPost, "/api/media/upload", device(key), map[string]any{"photoBase64": "data:image/jpeg;base64,AAAA", "folder": "taptell/other/attendance"}), http.StatusBadRequest, "Invalid folder")
	for _, folder := range []string{
		"taptell/" + schoolID + "/../other/attendance",
		"taptell/" + schoolID + "/./x/../../other",
		"taptell/" + schoolID + "//x",
		"taptell/" + schoolID + "/..",
	} {
		expect(t, app.do(t, http.MethodPost, "/api/media/upload", device(key), map[string]any{"photoBase64": "data:image/jpeg;base64,AAAA", "folder": folder}), http.StatusBadRequest, "Invalid folder")
	}

	uploaded := app.do(t, http.MethodPost, "/api/media/upload", device(key), map[string]any{"photoBase64": "data:image/jpeg;base64,AAAA"})
	expect(t, uploaded, http.StatusOK, "")
	want := "taptell/" + schoolID + "/attendance"
	if len(photos.folders) != 1 || photos.folders[0] != want || uploaded.body["public_id"] != want+"/a" {
		t.Fatalf("expected upload into %s, got %v %v", want, photos.folders, uploaded.body)
	}
}

func TestSuperAdminUnknownSchool(t *testing.T) {
	app := newTestApp(t, nil)
	missing := "11111111-2222-4333-8444-555555555555"

	student := map[string]any{"name": "Asha", "className": "5", "sec": "A", "rollNumber": "1", "house": "Red", "parentWhatsapp": "+919800000001"}
	expect(t, app.do(t, http.MethodPost, "/api/students?schoolId="+missing, admin(superKey), student), http.StatusNotFound, "School not found")
	student["schoolId"] = missing
	expect(t, app.do(t, http.MethodPost, "/api/students", admin(superKey), student), http.StatusNotFound, "School not found")
	expect(t, app.do(t, http.MethodPost, "/api/cards?schoolId="+missing, admin(superKey), map[string]any{"uid": "C1"}), http.StatusNotFound, "School not found")
	expect(t, app.do(t, http.MethodGet, "/api/students?schoolId="+missing, admin(superKey), nil), http.StatusNotFound, "School not found")
	expect(t, app.do(t, http.MethodGet, "/api/admin/dashboard?schoolId="+missing, admin(superKey), nil), http.StatusNotFound, "School not found")
}
