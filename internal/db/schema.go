package db

// SchemaSQL defines the resource table. Record keys are derived from the
// canonical URL, so the url index only guards against key derivation bugs.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS resource SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS url ON resource TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON resource TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON resource TYPE string ASSERT $value IN ["video", "blog", "doc"];
    DEFINE FIELD IF NOT EXISTS difficulty ON resource TYPE string DEFAULT "";
    -- TODO: Use set<string> when Go SDK supports CBOR tag 56 (v3.0 set type)
    DEFINE FIELD IF NOT EXISTS tags ON resource TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS summary ON resource TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS estimated_time ON resource TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS content ON resource TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS content_fetched_at ON resource TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS source ON resource TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS score ON resource TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS created ON resource TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON resource TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS resource_url ON resource FIELDS url UNIQUE;
    DEFINE INDEX IF NOT EXISTS resource_type ON resource FIELDS type;
`
