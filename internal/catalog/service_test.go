package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
)

type directTxRunner struct {
	db *gorm.DB
}

func (r directTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func validInput(productID uuid.UUID) PriceRowInput {
	return PriceRowInput{
		ProductID: productID,
		SizeCm:    200,
		GradePrices: [7]decimal.Decimal{
			decimal.RequireFromString("800.00"),
			decimal.RequireFromString("900.00"),
			decimal.RequireFromString("1000.00"),
			decimal.RequireFromString("1100.00"),
			decimal.RequireFromString("1200.00"),
			decimal.RequireFromString("1300.00"),
			decimal.RequireFromString("1400.00"),
		},
		LeatherPrice: decimal.RequireFromString("2100.00"),
	}
}

func TestImportPriceRows_UpsertsRows(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, directTxRunner{db: conn})
	require.NoError(t, err)

	productID := uuid.New()
	first := validInput(productID)
	second := validInput(productID)
	second.SizeCm = 240

	result, err := svc.ImportPriceRows(context.Background(), []PriceRowInput{first, second})
	require.NoError(t, err)
	require.Equal(t, 2, result.Upserted)

	row, err := repo.FindPriceRow(context.Background(), productID, 240, nil)
	require.NoError(t, err)
	require.True(t, row.Grade3.Equal(decimal.RequireFromString("1000.00")))
}

func TestImportPriceRows_RejectsInvalidRow(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, directTxRunner{db: conn})
	require.NoError(t, err)

	bad := validInput(uuid.New())
	hundred := decimal.NewFromInt(100)
	bad.DiscountPercent = &hundred

	_, err = svc.ImportPriceRows(context.Background(), []PriceRowInput{bad})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestImportPriceRows_EmptyInput(t *testing.T) {
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), directTxRunner{db: conn})
	require.NoError(t, err)

	_, err = svc.ImportPriceRows(context.Background(), nil)
	require.Error(t, err)
}
