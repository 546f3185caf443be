// Package http exposes the booking gateway over a local JSON API.
//
// The router exposes the following endpoints:
//   - GET /listings/{type}/{id}/calendar?date=YYYY-MM-DD: operating schedule,
//     the date's events, the operational flag and every start slot with its
//     availability.
//   - GET /listings/{type}/{id}/end-options?date=&start=HH:MM: selectable end
//     times after start.
//   - POST /listings/{type}/{id}/availability: classifies {"date","start","end"}
//     as available, invalid, closed_day, outside_hours or conflicting.
//   - GET /listings/{type}/{id}/operating-days?from=&to=: dates in the range on
//     which the listing opens, for greying out a date picker.
//   - GET /bookings?date=&postId=&type=: bookings of a listing on a date.
//   - POST /bookings, PUT /bookings/{id}, DELETE /bookings/{id}?date=&postId=&type=:
//     owner mutations. Each responds with the refreshed bookings of the date.
//   - POST /booking-requests, GET|DELETE /booking-requests/{id},
//     PUT /booking-requests/{id}/date, PUT /booking-requests/{id}/times,
//     POST /booking-requests/{id}/submit: the guest request dialog. Responses
//     carry the `flowDTO` payload defined in request_flow_handler.go.
//   - GET|PUT|DELETE /session: the signed-in user's profile blob.
//   - GET|DELETE /cart, POST /cart/items, PUT|DELETE /cart/items/{id}: the cart.
//   - POST /checkout: returns the hosted payment redirect.
//
// Mutations acting for the signed-in user are wrapped in RequireSession.
// Request/response DTOs live alongside their handlers.
package http
