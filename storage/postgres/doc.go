// Package postgres implements storage.Store on a PostgreSQL table with a
// pgvector embedding column.
//
// Pending rows are those whose embedding column is NULL. Offset windows page
// through them in ID order with LIMIT/OFFSET; hash windows select the rows of
// one shard with mod(hashtext(id), total) and a keyset cursor on the ID.
// Similarity scans order by the pgvector L2 operator (<->).
//
// Each Connect opens its own *sql.DB limited to a single connection, which is
// closed by Store.Close:
//
//	connector, err := postgres.NewConnector(postgres.DefaultConfig())
//	store, err := connector.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package postgres
