// 文件路径: internal/migrations/sqlite_embed.go
// 模块说明: 内嵌 SQLite 迁移文件，二进制部署时无需携带 SQL 目录。
package migrations

import "embed"

// SQLite embeds all SQLite-specific migration files.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
