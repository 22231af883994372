package chat

// CIFileStatus is the per-item view of a transfer's progress.
type CIFileStatus string

const (
	FileSndStored     CIFileStatus = "snd_stored"
	FileSndTransfer   CIFileStatus = "snd_transfer"
	FileSndComplete   CIFileStatus = "snd_complete"
	FileSndCancelled  CIFileStatus = "snd_cancelled"
	FileRcvInvitation CIFileStatus = "rcv_invitation"
	FileRcvAccepted   CIFileStatus = "rcv_accepted"
	FileRcvTransfer   CIFileStatus = "rcv_transfer"
	FileRcvComplete   CIFileStatus = "rcv_complete"
	FileRcvCancelled  CIFileStatus = "rcv_cancelled"
)

// Terminal reports whether the status is a terminal outcome. Classic and
// chunked transfers must converge to the same terminal set.
func (s CIFileStatus) Terminal() bool {
	switch s {
	case FileSndComplete, FileSndCancelled, FileRcvComplete, FileRcvCancelled:
		return true
	}
	return false
}

// CIFile is file metadata attached to a chat item.
type CIFile struct {
	FileID     int64        `json:"fileId"`
	FileName   string       `json:"fileName"`
	FileSize   int64        `json:"fileSize"`
	FilePath   string       `json:"filePath,omitempty"`
	FileStatus CIFileStatus `json:"fileStatus"`
}

// Loaded reports whether the file bytes are available locally.
func (f CIFile) Loaded() bool {
	switch f.FileStatus {
	case FileSndStored, FileSndTransfer, FileSndComplete, FileSndCancelled, FileRcvComplete:
		return true
	}
	return false
}

// FileTransferMeta describes an outbound transfer owned by the engine.
type FileTransferMeta struct {
	FileID   int64  `json:"fileId"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
}

// FileInvitation is the sender's offer embedded in a receive transfer.
type FileInvitation struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// RcvFileTransfer tracks an inbound transfer.
type RcvFileTransfer struct {
	FileID         int64          `json:"fileId"`
	FileInvitation FileInvitation `json:"fileInvitation"`
	FileStatus     string         `json:"fileStatus"`
}

// SndFileTransfer tracks one recipient of an outbound transfer.
type SndFileTransfer struct {
	FileID        int64  `json:"fileId"`
	FileName      string `json:"fileName"`
	FileSize      int64  `json:"fileSize"`
	RecipientName string `json:"recipientDisplayName"`
}
