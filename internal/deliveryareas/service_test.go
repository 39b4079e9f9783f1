package deliveryareas

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestListForBranchIncludesSharedAreas(t *testing.T) {
	conn := dbtest.Open(t)
	kandy := dbtest.Branch(t, conn, "Kandy")
	galle := dbtest.Branch(t, conn, "Galle")
	svc, err := NewService(conn)
	require.NoError(t, err)
	ctx := context.Background()

	disabled := false
	_, err = svc.Create(ctx, CreateInput{Name: "Peradeniya", Fee: decimal.NewFromInt(300), BranchID: &kandy.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Island-wide", Fee: decimal.NewFromInt(900)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Unawatuna", Fee: decimal.NewFromInt(200), BranchID: &galle.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Katugastota", Fee: decimal.NewFromInt(100), BranchID: &kandy.ID, IsEnabled: &disabled})
	require.NoError(t, err)

	areas, err := svc.ListForBranch(ctx, kandy.ID)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "Peradeniya", areas[0].Name)
	assert.Equal(t, "Island-wide", areas[1].Name)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCreateRejectsNegativeFee(t *testing.T) {
	svc, err := NewService(dbtest.Open(t))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Nowhere", Fee: decimal.NewFromInt(-1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateClearsBranchOnExplicitNull(t *testing.T) {
	conn := dbtest.Open(t)
	branch := dbtest.Branch(t, conn, "Kandy")
	svc, err := NewService(conn)
	require.NoError(t, err)
	ctx := context.Background()

	area, err := svc.Create(ctx, CreateInput{Name: "Peradeniya", Fee: decimal.NewFromInt(300), BranchID: &branch.ID})
	require.NoError(t, err)

	var keep UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"fee":"350"}`), &keep))
	updated, err := svc.Update(ctx, area.ID, keep)
	require.NoError(t, err)
	require.NotNil(t, updated.BranchID)
	assert.True(t, updated.Fee.Equal(decimal.NewFromInt(350)))

	var unset UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"branchId":null}`), &unset))
	updated, err = svc.Update(ctx, area.ID, unset)
	require.NoError(t, err)
	assert.Nil(t, updated.BranchID)

	_, err = svc.Update(ctx, uuid.New(), keep)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, area.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, area.ID), pkgerrors.CodeNotFound))
}
