package gorm

import (
	"context"
	"testing"

	"github.com/snackhack/client/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreRepositoryTestSuite struct {
	suite.Suite
	repo *StoreRepository
	ctx  context.Context
}

func (suite *StoreRepositoryTestSuite) SetupTest() {
	db, _ := testutils.NewTestDB(suite.T())
	suite.Require().NoError(db.AutoMigrate(&EntryModel{}))
	suite.repo = NewStoreRepository(db)
	suite.ctx = context.Background()
}

func (suite *StoreRepositoryTestSuite) TestLoadMissing() {
	value, ok, err := suite.repo.Load(suite.ctx, "app_mode")

	suite.NoError(err)
	suite.False(ok)
	suite.Nil(value)
}

func (suite *StoreRepositoryTestSuite) TestSaveOverwrites() {
	// Arrange
	suite.Require().NoError(suite.repo.Save(suite.ctx, "app_serving_size", []byte("2")))

	// Act
	err := suite.repo.Save(suite.ctx, "app_serving_size", []byte("6"))

	// Assert
	suite.Require().NoError(err)
	value, ok, err := suite.repo.Load(suite.ctx, "app_serving_size")
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("6", string(value))
}

func (suite *StoreRepositoryTestSuite) TestClear() {
	for _, key := range []string{"app_mode", "app_recipes", "access_token"} {
		suite.Require().NoError(suite.repo.Save(suite.ctx, key, []byte(`"x"`)))
	}

	suite.Require().NoError(suite.repo.Clear(suite.ctx, "app_mode", "app_recipes"))

	_, ok, _ := suite.repo.Load(suite.ctx, "app_mode")
	suite.False(ok)
	_, ok, _ = suite.repo.Load(suite.ctx, "access_token")
	suite.True(ok)
	suite.NoError(suite.repo.Clear(suite.ctx))
}

func TestStoreRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(StoreRepositoryTestSuite))
}

func TestEntryModel_TableName(t *testing.T) {
	db, _ := testutils.NewTestDB(t)
	require.NoError(t, db.AutoMigrate(&EntryModel{}))
	assert.True(t, db.Migrator().HasTable("persisted_entries"))
}
