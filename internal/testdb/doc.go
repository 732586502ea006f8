//go:build integration

// Package testdb provides utilities for database integration tests.
//
// Tests run inside a transaction that is rolled back when the test
// completes, so they can share one migrated database without cleanup:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.SetupTestDatabaseSchema(t, db)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        chapter := testdb.InsertChapter(t, tx, "Bhagavad Gita", 2, 3)
//	        // ...
//	    })
//	}
//
// Tests are skipped when neither DATABASE_URL nor SCRY_TEST_DB_URL is set.
package testdb
