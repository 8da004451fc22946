package statepaths

import (
	"github.com/janstenner/NickerchenBot/internal/pathutil"
	"github.com/spf13/viper"
)

const (
	stateFilename = "state.json"
)

func FileStateDir() string {
	return pathutil.ResolveStateDir(viper.GetString("file_state_dir"))
}

// StateFilePath is the whole-state JSON snapshot (offset + per-chat
// counters). Message text is never written here.
func StateFilePath() string {
	return pathutil.ResolveStateFile(viper.GetString("file_state_dir"), stateFilename)
}

func NotesDir() string {
	return pathutil.ResolveStateChildDir(
		viper.GetString("file_state_dir"),
		viper.GetString("notes.dir_name"),
		"notes",
	)
}
