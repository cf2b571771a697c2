package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
)

// MailFetcher retrieves emailed subtask attachments over IMAP. The file
// reference is the Message-ID of the carrying mail; the first attachment
// on that message is the referenced file.
type MailFetcher struct {
	host     string
	port     string
	username string
	password string
	mailbox  string
	tls      bool
}

// NewMailFetcher creates a mail fetcher configuration. An empty mailbox
// defaults to INBOX.
func NewMailFetcher(
	host, port, username, password, mailbox string, tls bool,
) *MailFetcher {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &MailFetcher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		mailbox:  mailbox,
		tls:      tls,
	}
}

// connect establishes a connection to the IMAP server, authenticates,
// and selects the configured mailbox. The caller is responsible for
// calling Logout on the returned client.
func (f *MailFetcher) connect(_ context.Context) (*imapclient.Client, error) {
	addr := f.host + ":" + f.port

	var client *imapclient.Client
	var err error

	if f.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(f.username, f.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authenticating %s against %s: %w", f.username, addr, err)
	}

	if _, err := client.Select(f.mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting mailbox %s: %w", f.mailbox, err)
	}

	return client, nil
}

// FetchAttachment locates the message carrying messageID and returns its
// first attachment.
func (f *MailFetcher) FetchAttachment(
	ctx context.Context,
	messageID string,
) (*File, error) {
	if messageID == "" {
		return nil, fmt.Errorf("empty message id")
	}

	client, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "Message-Id", Value: messageID},
		},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching for message %s: %w", messageID, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, fmt.Errorf("message %s not found in %s", messageID, f.mailbox)
	}

	uidSet := imap.UIDSetNum(uids[0])

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("fetching message %s: no data", messageID)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	rawBody := buf.FindBodySection(bodySection)
	if rawBody == nil {
		return nil, fmt.Errorf("message %s has no body", messageID)
	}

	file, err := firstAttachment(rawBody)
	if err != nil {
		return nil, fmt.Errorf("parsing message %s: %w", messageID, err)
	}
	if file == nil {
		return nil, fmt.Errorf("message %s carries no attachment", messageID)
	}

	return file, nil
}

// firstAttachment parses a raw RFC 2822 message body using go-message
// and extracts the first attachment with its content.
func firstAttachment(raw []byte) (*File, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("creating mail reader: %w", err)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, _ := header.Filename()
		contentType, _, _ := header.ContentType()

		data, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		return &File{
			Name:     sanitizeFilename(filename),
			MIMEType: contentType,
			Data:     data,
		}, nil
	}

	return nil, nil
}

// sanitizeFilename strips any path components from a sender-supplied
// attachment filename. The Content-Disposition header is attacker
// territory; a name like "../../evil.txt" must never leave this package.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	// Base never understands backslash separators on non-Windows hosts.
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "attachment"
	}
	return name
}
