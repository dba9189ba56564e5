package script

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"File '%s' created with size %d bytes":          "ファイル '%s' を作成しました (%d バイト)",
		"File '%s' deleted successfully":                "ファイル '%s' を削除しました",
		"File '%s' copied to '%s'":                      "ファイル '%s' を '%s' にコピーしました",
		"Destination file '%s' already exists.":         "移動先のファイル '%s' は既に存在します。",
		"File '%s' moved to '%s'":                       "ファイル '%s' を '%s' に移動しました",
		"New directory '%s' created.":                   "ディレクトリ '%s' を作成しました。",
		"Directory '%s' removed.":                       "ディレクトリ '%s' を削除しました。",
		"Here's the list of all files and directories:": "ファイルとディレクトリの一覧:",
		"Directory: %s":                                 "ディレクトリ: %s",
		"%s %d bytes.":                                  "%s %d バイト。",
		"Unknown command: %s":                           "不明なコマンド: %s",
		"Usage: %s":                                     "使い方: %s",
		"'%s' does not exist.":                          "'%s' は存在しません。",
		"'%s' already exists.":                          "'%s' は既に存在します。",
		"Not enough space for '%s'.":                    "'%s' のための空き容量が足りません。",
		"Max file limit reached.":                       "ファイル数の上限に達しました。",
		"Invalid directory path '%s'.":                  "ディレクトリパス '%s' が不正です。",
		"Parent directory of '%s' does not exist.":      "'%s' の親ディレクトリが存在しません。",
		"Invalid name '%s'.":                            "名前 '%s' が不正です。",
		"Invalid size '%s'.":                            "サイズ '%s' が不正です。",
		"'%s' is a directory.":                          "'%s' はディレクトリです。",
		"'%s' is not a directory.":                      "'%s' はディレクトリではありません。",
		"The root directory cannot be removed.":         "ルートディレクトリは削除できません。",
		"Error: %v":                                     "エラー: %v",
	})
}
