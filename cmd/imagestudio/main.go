// imagestudio は画像生成・フィルタ・履歴管理を行うコマンドラインツールです。
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
