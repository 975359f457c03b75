// Package git provides the version control operations the catalog needs to
// keep a local working copy of every source repository.
//
// Working copies live in a go-billy filesystem so that the same client
// serves the on-disk cache directory in production and an in-memory
// filesystem in tests:
//
//	fs := osfs.New(dataDir)
//	client := git.NewDefaultClient(fs)
//	info, err := client.Clone(ctx, "https://github.com/org/catalog", "repos/catalog")
//
// Clones are shallow and single-branch. Pull treats an up-to-date working copy
// as success.
package git
