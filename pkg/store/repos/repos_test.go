package repos

import (
	"context"
	"testing"

	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laptopType() *types.EntityType {
	return &types.EntityType{
		Kind: types.EntityKindAsset,
		Name: "Laptop",
		CustomFields: []types.FieldDefinition{
			{ID: "f1", Name: "Colour", FieldType: types.FieldTypeSingleSelect, Options: types.StringPtr(`["Red","Blue"]`), IsRequired: true, SortOrder: 0},
			{ID: "f2", Name: "Warranty", FieldType: types.FieldTypeBoolean, SortOrder: 1},
		},
	}
}

func TestTypeRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTypeRepo(store.NewMemoryStore())

	lt := laptopType()
	if err := repo.Create(ctx, lt); err != nil {
		t.Fatalf("Failed to create type: %v", err)
	}
	if lt.ID == "" {
		t.Fatal("Create should assign an id")
	}
	if lt.Metadata == nil || lt.Metadata.CreatedAt.IsZero() {
		t.Fatal("Create should stamp metadata")
	}

	got, err := repo.Get(ctx, types.EntityKindAsset, lt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)
	assert.Len(t, got.CustomFields, 2)
	assert.Equal(t, int64(1), got.Metadata.Generation)

	byName, err := repo.GetByName(ctx, types.EntityKindAsset, "laptop")
	require.NoError(t, err)
	assert.Equal(t, lt.ID, byName.ID)

	_, err = repo.GetByName(ctx, types.EntityKindAsset, "Phone")
	assert.True(t, store.IsNotFoundError(err))

	_, err = repo.Get(ctx, types.EntityKindApplication, lt.ID)
	assert.True(t, store.IsNotFoundError(err), "types are scoped by kind")
}

func TestTypeRepo_CreateRejectsInvalid(t *testing.T) {
	repo := NewTypeRepo(store.NewMemoryStore())

	lt := laptopType()
	lt.CustomFields[1].SortOrder = 0
	err := repo.Create(context.Background(), lt)
	require.Error(t, err)
	assert.True(t, types.IsValidationError(err))
}

func TestTypeRepo_UpdateKeepsCreation(t *testing.T) {
	ctx := context.Background()
	repo := NewTypeRepo(store.NewMemoryStore())

	lt := laptopType()
	require.NoError(t, repo.Create(ctx, lt))
	created := lt.Metadata.CreatedAt

	lt.Description = "Company laptops"
	lt.Metadata = nil
	require.NoError(t, repo.Update(ctx, lt))

	got, err := repo.Get(ctx, lt.Kind, lt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Company laptops", got.Description)
	assert.True(t, got.Metadata.CreatedAt.Equal(created))
	assert.Equal(t, int64(2), got.Metadata.Generation)

	history, err := repo.GetHistory(ctx, lt.Kind, lt.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	missing := laptopType()
	missing.ID = "nope"
	assert.True(t, store.IsNotFoundError(repo.Update(ctx, missing)))
}

func TestTypeRepo_ListByKind(t *testing.T) {
	ctx := context.Background()
	repo := NewTypeRepo(store.NewMemoryStore())

	require.NoError(t, repo.Create(ctx, laptopType()))
	require.NoError(t, repo.Create(ctx, &types.EntityType{Kind: types.EntityKindApplication, Name: "SaaS"}))

	assets, err := repo.List(ctx, types.EntityKindAsset)
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTemplateRepo(t *testing.T) {
	ctx := context.Background()
	core := store.NewMemoryStore()
	repo := NewTemplateRepo(core)

	tpl := &types.Template{
		Name:           "Standard laptop",
		Kind:           types.EntityKindAsset,
		OwnerTypeID:    "type-1",
		ScalarDefaults: types.ScalarFields{LocationID: "loc-9"},
		FieldValues:    []types.FieldValue{{FieldDefinitionID: "f1", Value: types.StringPtr("Blue")}},
	}
	require.NoError(t, repo.Create(ctx, tpl))
	require.NotEmpty(t, tpl.ID)
	require.NoError(t, repo.Create(ctx, &types.Template{Name: "Dev laptop", OwnerTypeID: "type-1"}))
	require.NoError(t, repo.Create(ctx, &types.Template{Name: "Other", OwnerTypeID: "type-2"}))

	got, err := repo.Get(ctx, "type-1", tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "loc-9", got.ScalarDefaults.LocationID)

	byName, err := repo.GetByName(ctx, "type-1", "STANDARD LAPTOP")
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, byName.ID)

	list, err := repo.List(ctx, "type-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.List(ctx, "")
	assert.True(t, types.IsValidationError(err))

	tpl.ScalarDefaults.Notes = "imaged"
	require.NoError(t, repo.Update(ctx, tpl))
	got, err = repo.Get(ctx, "type-1", tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "imaged", got.ScalarDefaults.Notes)
	assert.Equal(t, int64(2), got.Metadata.Generation)

	owned, err := repo.List(ctx, "type-1")
	require.NoError(t, err)
	err = core.Transaction(ctx, func(tx store.Transaction) error {
		for _, o := range owned {
			if err := repo.DeleteTx(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	list, err = repo.List(ctx, "type-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = repo.List(ctx, "type-2")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTemplateRepo_CreateRequiresOwner(t *testing.T) {
	repo := NewTemplateRepo(store.NewMemoryStore())
	err := repo.Create(context.Background(), &types.Template{Name: "No owner"})
	assert.True(t, types.IsValidationError(err))
}

func TestInstanceRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewInstanceRepo(store.NewMemoryStore())

	a := &types.Instance{Kind: types.EntityKindAsset, TypeID: "type-1", Name: "LT-001"}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	if a.Metadata.CreatedAt.IsZero() {
		t.Fatal("Instance CreatedAt should not be zero")
	}
	require.NoError(t, repo.Create(ctx, &types.Instance{Kind: types.EntityKindAsset, TypeID: "type-2", Name: "PH-001"}))

	byType, err := repo.ListByType(ctx, types.EntityKindAsset, "type-1")
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "LT-001", byType[0].Name)

	a.Scalars.PurchaseCost = "abc"
	err = repo.Update(ctx, a)
	assert.True(t, types.IsValidationError(err))

	a.Scalars.PurchaseCost = "1200"
	require.NoError(t, repo.Update(ctx, a))

	got, err := repo.Get(ctx, types.EntityKindAsset, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200", got.Scalars.PurchaseCost)

	require.NoError(t, repo.Delete(ctx, types.EntityKindAsset, a.ID))
	_, err = repo.Get(ctx, types.EntityKindAsset, a.ID)
	assert.True(t, store.IsNotFoundError(err))
}
