package handlers

import (
	"net/http"

	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/libs/httpx"
)

type Routes struct {
	Auth         *AuthHandler
	Users        *UsersHandler
	Appointments *AppointmentsHandler
	Push         *PushHandler
	// Calendar serves the ICS feed when the ics provider is active.
	Calendar  http.Handler
	JWTSecret string
	// LoginLimit and BookingLimit are applied when non-nil.
	LoginLimit   httpx.Middleware
	BookingLimit httpx.Middleware
}

func (rt Routes) Register(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc, roles ...string) http.Handler {
		var next http.Handler = h
		if len(roles) > 0 {
			next = RequireRole(next, roles...)
		}
		return RequireAuth(next, rt.JWTSecret)
	}
	limit := func(m httpx.Middleware, h http.Handler) http.Handler {
		if m == nil {
			return h
		}
		return m(h)
	}

	mux.Handle("POST /api/auth/login", limit(rt.LoginLimit, http.HandlerFunc(rt.Auth.Login)))

	mux.Handle("GET /api/users", authed(rt.Users.List, auth.RoleAdmin))
	mux.Handle("POST /api/users", authed(rt.Users.Create, auth.RoleAdmin))

	mux.Handle("GET /api/appointments/slots", http.HandlerFunc(rt.Appointments.Slots))
	mux.Handle("GET /api/appointments", authed(rt.Appointments.List, auth.RoleAdmin))
	mux.Handle("GET /api/appointments/me", authed(rt.Appointments.Mine))
	mux.Handle("POST /api/appointments", limit(rt.BookingLimit, authed(rt.Appointments.Create)))
	mux.Handle("PUT /api/appointments/{id}/confirm", authed(rt.Appointments.Confirm, auth.RoleAdmin))
	mux.Handle("PUT /api/appointments/{id}/reject", authed(rt.Appointments.Reject, auth.RoleAdmin))

	mux.Handle("GET /api/push/vapid-public-key", http.HandlerFunc(rt.Push.VAPIDPublicKey))
	mux.Handle("POST /api/push/subscribe-admin", authed(rt.Push.SubscribeAdmin, auth.RoleAdmin))

	if rt.Calendar != nil {
		mux.Handle("GET /api/calendar.ics", authed(rt.Calendar.ServeHTTP, auth.RoleAdmin))
	}
}
