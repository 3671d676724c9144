/*
Package config loads patch specifications: which files to edit and the ordered
operations to run against each of them.

	            +---------------+
	            |     Spec      |
	            | (FileEdits)   |
	            +-------+-------+
	                    |
	      +-------------+-------------+
	      |             |             |
	+-----+----+  +-----+----+  +-----+----+
	|   JSON   |  |   YAML   |  |   HCL    |
	|  Parser  |  |  Parser  |  |  Parser  |
	+----------+  +----------+  +----------+

🎯 Purpose:
- Decode a specification from a file or a stream
- Reject malformed structure before any file is touched
- Normalize text fields (optional escape decoding)

🔄 Flow:
1. Pick a parser by --format or by file extension
2. Decode strictly (unknown fields are errors)
3. Validate required fields
4. Normalize and hand a read-only Spec to the runner

The package does not know what an operation does; it only carries the raw
tagged variant. Kind-specific field checks happen when operations are built.

🔍 Example:

	spec, err := config.Load(ctx, "patches.yaml", "")
	if err != nil {
		return errors.Errorf("loading spec: %w", err)
	}

	for _, fe := range spec.Files {
		fmt.Println(fe.Path, len(fe.Ops))
	}

JSON shape:

	{ "files": [ { "path": "app.py", "ops": [ { "op": "ensure_import", "name": "os" } ] } ] }

HCL shape:

	file "app.py" {
	  op "ensure_import" {
	    name = "os"
	  }
	}
*/
package config
