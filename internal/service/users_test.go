package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

func TestUserService_Get(t *testing.T) {
	repo := &mockAuthRepo{
		GetUserByIDFunc: func(ctx context.Context, id string) (models.User, error) {
			switch id {
			case "u1":
				return models.User{ID: "u1", Name: "Ann", Email: "ann@x.com", Password: "hash", Active: 1}, nil
			case "broken":
				return models.User{}, errors.New("db error")
			default:
				return models.User{}, apperr.ErrNotFound
			}
		},
	}
	svc := NewUserService(repo)

	got, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := models.PublicUser{ID: "u1", Name: "Ann", Email: "ann@x.com"}
	if got != want {
		t.Errorf("Get = %+v; want %+v", got, want)
	}

	if _, err := svc.Get(context.Background(), "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get error = %v; want ErrNotFound", err)
	}
	if _, err := svc.Get(context.Background(), "broken"); err == nil || errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get error = %v; want wrapped store error", err)
	}
}
