// Package pathformat turns a placeholder template and a media record into a
// destination path, and hands out collision-free names within a run.
//
// Templates use {name} tokens, for example "{artist}/{album}/{filename}".
// Any token that does not resolve renders as Unknown. Rendered segments are
// sanitized for every major file system, so a rendered path always stays
// below the output root.
package pathformat
