package service_test

import (
	"github.com/Veraticus/spice-patterns/internal/ofx"
	"github.com/Veraticus/spice-patterns/internal/service"
	"github.com/Veraticus/spice-patterns/internal/storage"
	"github.com/Veraticus/spice-patterns/internal/storage/memory"
)

var (
	_ service.Storage           = (*storage.SQLiteStorage)(nil)
	_ service.Storage           = (*memory.Store)(nil)
	_ service.TransactionSource = (*ofx.Parser)(nil)
)
