package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/availability"
	"github.com/example/marketplace-booking/internal/marketplace"
)

type marketplaceClient interface {
	GetCalendar(ctx context.Context, listingType marketplace.ListingType, id string) (*marketplace.Calendar, error)
	BookingsByDate(ctx context.Context, date time.Time, postID string, listingType marketplace.ListingType) ([]marketplace.Event, error)
	CreateBooking(ctx context.Context, payload marketplace.BookingPayload) (marketplace.Event, error)
	UpdateBooking(ctx context.Context, id string, payload marketplace.BookingPayload) (marketplace.Event, error)
	DeleteBooking(ctx context.Context, id string) error
}

// marketplaceAdapter exposes the REST client as application.BookingAPI.
type marketplaceAdapter struct {
	client marketplaceClient
}

func newMarketplaceAdapter(client marketplaceClient) *marketplaceAdapter {
	return &marketplaceAdapter{client: client}
}

func (a *marketplaceAdapter) Calendar(ctx context.Context, listing application.ListingRef) (application.Calendar, error) {
	listingType, err := marketplace.ParseListingType(string(listing.Type))
	if err != nil {
		return application.Calendar{}, err
	}
	cal, err := a.client.GetCalendar(ctx, listingType, listing.ID)
	if err != nil {
		return application.Calendar{}, mapMarketplaceError(err)
	}
	schedule, err := availability.ParseSchedule(cal.OperationDays, cal.OperationHours.Open, cal.OperationHours.Close)
	if err != nil {
		return application.Calendar{}, fmt.Errorf("calendar of %s %s: %w", listing.Type, listing.ID, err)
	}
	return application.Calendar{Schedule: schedule, Bookings: toApplicationBookings(cal.Events)}, nil
}

func (a *marketplaceAdapter) BookingsByDate(ctx context.Context, listing application.ListingRef, date time.Time) ([]application.Booking, error) {
	listingType, err := marketplace.ParseListingType(string(listing.Type))
	if err != nil {
		return nil, err
	}
	events, err := a.client.BookingsByDate(ctx, date, listing.ID, listingType)
	if err != nil {
		return nil, mapMarketplaceError(err)
	}
	return toApplicationBookings(events), nil
}

func (a *marketplaceAdapter) CreateBooking(ctx context.Context, sub application.BookingSubmission) (application.Booking, error) {
	payload, err := toPayload(sub)
	if err != nil {
		return application.Booking{}, err
	}
	event, err := a.client.CreateBooking(ctx, payload)
	if err != nil {
		return application.Booking{}, mapMarketplaceError(err)
	}
	return toApplicationBooking(event), nil
}

func (a *marketplaceAdapter) UpdateBooking(ctx context.Context, id string, sub application.BookingSubmission) (application.Booking, error) {
	payload, err := toPayload(sub)
	if err != nil {
		return application.Booking{}, err
	}
	event, err := a.client.UpdateBooking(ctx, id, payload)
	if err != nil {
		return application.Booking{}, mapMarketplaceError(err)
	}
	return toApplicationBooking(event), nil
}

func (a *marketplaceAdapter) DeleteBooking(ctx context.Context, id string) error {
	return mapMarketplaceError(a.client.DeleteBooking(ctx, id))
}

// mapMarketplaceError turns a 404 into application.ErrNotFound and keeps the
// original error in the chain.
func mapMarketplaceError(err error) error {
	var apiErr *marketplace.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	}
	return err
}

func toPayload(sub application.BookingSubmission) (marketplace.BookingPayload, error) {
	listingType, err := marketplace.ParseListingType(string(sub.Listing.Type))
	if err != nil {
		return marketplace.BookingPayload{}, err
	}
	return marketplace.BookingPayload{
		UserID:    sub.UserID,
		Type:      listingType,
		ListingID: sub.Listing.ID,
		StartTime: sub.Start,
		EndTime:   sub.End,
		Notes:     sub.Notes,
		Price:     sub.Price,
	}, nil
}

func toApplicationBooking(event marketplace.Event) application.Booking {
	return application.Booking{ID: event.ID, Title: event.Title, Start: event.Start, End: event.End}
}

func toApplicationBookings(events []marketplace.Event) []application.Booking {
	if len(events) == 0 {
		return nil
	}
	bookings := make([]application.Booking, 0, len(events))
	for _, event := range events {
		bookings = append(bookings, toApplicationBooking(event))
	}
	return bookings
}
