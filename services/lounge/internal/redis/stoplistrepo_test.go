package redis

import (
	"context"
	"testing"

	"github.com/appetiteclub/apt"
)

func TestStopListRepoRequiresStart(t *testing.T) {
	repo := NewStopListRepo(apt.NewConfig(), nil)
	ctx := context.Background()

	if err := repo.Add(ctx, "mint"); err == nil {
		t.Error("Add() on unstarted repo returned nil error")
	}
	if err := repo.Remove(ctx, "mint"); err == nil {
		t.Error("Remove() on unstarted repo returned nil error")
	}
	if _, err := repo.Items(ctx); err == nil {
		t.Error("Items() on unstarted repo returned nil error")
	}
	if err := repo.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
