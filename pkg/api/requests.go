package api

// AssembleRequest asks for one chain assembly. LoadDir is the review load's
// directory on the review filesystem; MaxLinks caps the backward walk and
// OutputPath, when set, also writes the assembled history to disk.
type AssembleRequest struct {
	LoadDir    string `json:"load_dir" binding:"required"`
	MaxLinks   int    `json:"max_links"`
	OutputPath string `json:"output_path"`
}
