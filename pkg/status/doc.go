/*
Package status owns every file system touch the patch runner makes.

	            +-------------+
	            |   Manager   |
	            |  (Storage)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|  Expand   |           |  Write  |
	|  (globs)  |           | (atomic)|
	+-----------+           +---------+

🎯 Purpose:
- Resolve FileEdit paths and doublestar globs against a root directory
- Read target files whole
- Persist new content with a temp-file-then-rename write

⚡ Guarantees:
- A reader never observes a partially written target file
- The original file mode survives a rewrite
- A failed write leaves no temp file behind

🔍 Example:

	mgr := status.New(root)
	paths, err := mgr.Expand(ctx, "pkg/*.py", []string{"pkg/skip_*.py"})
	content, err := mgr.ReadFile(ctx, paths[0])
	err = mgr.WriteFileAtomic(ctx, paths[0], newContent)
*/
package status
