package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"Loaded snapshot from %s backend (%d bytes)":           "%s バックエンドからスナップショットを読み込みました (%d バイト)",
		"No snapshot found, initialising fresh volume":         "スナップショットが見つかりません。新しいボリュームを初期化します",
		"Snapshot unreadable, starting fresh: %v":              "スナップショットを読み込めません。新規に開始します: %v",
		"Saved snapshot (%d bytes)":                            "スナップショットを保存しました (%d バイト)",
		"Failed to save snapshot: %v":                          "スナップショットの保存に失敗しました: %v",
		"Journal append failed: %v":                            "ジャーナルへの追記に失敗しました: %v",
		"Volume: %d/%d blocks free, %d/%d entries used":        "ボリューム: 空きブロック %d/%d、使用エントリ %d/%d",
		"Executing %s %v":                                      "%s %v を実行中",
		"Snapshot store unavailable: %v":                       "スナップショットストアを利用できません: %v",
		"Journal unavailable: %v":                              "ジャーナルを利用できません: %v",
		"Journal replay failed: %v":                            "ジャーナルの再生に失敗しました: %v",
		"Journal checkpoint failed: %v":                        "ジャーナルのチェックポイントに失敗しました: %v",
		"Replaying %d journal entries from an unsaved run":     "未保存の実行から %d 件のジャーナルを再生しています",
		"Ran %d commands: %d applied, %d failed":               "%d 件のコマンドを実行: 成功 %d 件、失敗 %d 件",
		"Script aborted: %v":                                   "スクリプトを中断しました: %v",
		"Removed %d entries under %s":                          "%[2]s 以下の %[1]d 件を削除しました",
		"Existing snapshot was rejected, leaving it untouched": "既存のスナップショットは使用できないため、そのまま残します",
		"Journal %s: %d entries recorded":                      "ジャーナル %s: %d 件を記録しました",
		"line %d: %v":                                          "%d 行目: %v",
	})
}
