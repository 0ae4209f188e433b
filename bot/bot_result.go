package bot

import (
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	successMessageColour int = 0x28bd00
	infoMessageColour    int = 0x0099bd
	warnMessageColour    int = 0xbdb900
	errorMessageColour   int = 0xbd1b00
)

//Response represents the result of a command which can be both communicated over discord and written to the log.
type Response interface {
	InteractionResponse() *discordgo.InteractionResponse
	WriteToLog()
}

//ResponseSuccess will be returned when a command has been successfully completed
type ResponseSuccess struct {
	//The base command name
	command string
	//A human-readable description of what was done
	description string
	//The time the success was logged at
	timestamp time.Time
}

//InteractionResponse builds an ephemeral embed which is sent back to whoever ran the command.
func (r ResponseSuccess) InteractionResponse() *discordgo.InteractionResponse {
	return embedResponse(&discordgo.MessageEmbed{
		Title:       "Success! \\o/",
		Description: r.description,
		Color:       successMessageColour,
	}, r.timestamp, nil)
}

//WriteToLog dumps data on a command response to the log
func (r ResponseSuccess) WriteToLog() {
	logrus.Infof("%v Completed command %v successfully: %v", logLineLabel(r.timestamp), r.command, r.description)
}

//ResponseInfo will be returned when a command only reports data back
type ResponseInfo struct {
	//The base command name
	command string
	//The embed title
	title string
	//A human-readable description
	description string
	//Fields which should be included in the embed
	data map[string]string
	//The time the response was logged at
	timestamp time.Time
}

//InteractionResponse builds an ephemeral embed which is sent back to whoever ran the command.
func (r ResponseInfo) InteractionResponse() *discordgo.InteractionResponse {
	return embedResponse(&discordgo.MessageEmbed{
		Title:       r.title,
		Description: r.description,
		Color:       infoMessageColour,
	}, r.timestamp, r.data)
}

//WriteToLog dumps data on a command response to the log
func (r ResponseInfo) WriteToLog() {
	logrus.Debugf("%v Completed command %v with %d fields", logLineLabel(r.timestamp), r.command, len(r.data))
}

//ResponseSyntaxError will be returned when there was an issue with the user's input
type ResponseSyntaxError struct {
	//The base command name
	command string
	//A human-readable description of the issue
	description string
	//The time the error was logged at
	timestamp time.Time
}

//InteractionResponse builds an ephemeral embed which is sent back to whoever ran the command.
func (r ResponseSyntaxError) InteractionResponse() *discordgo.InteractionResponse {
	description := fmt.Sprintf("Sorry, but there was a problem with the data you supplied for the %v command: \n%v", r.command, r.description)
	return embedResponse(&discordgo.MessageEmbed{
		Title:       "Uh-oh, there was something wrong with that command",
		Description: description,
		Color:       warnMessageColour,
	}, r.timestamp, nil)
}

//WriteToLog dumps data on a command response to the log
func (r ResponseSyntaxError) WriteToLog() {
	logrus.Infof("%v Bad input to command %v: %v", logLineLabel(r.timestamp), r.command, r.description)
}

//ResponseInternalError will be returned when a command failed. The error itself is only written to the log.
type ResponseInternalError struct {
	//The base command name
	command string
	//The error which caused the failure
	err error
	//The time the error was logged at
	timestamp time.Time
}

//InteractionResponse builds an ephemeral message naming the failed command.
func (r ResponseInternalError) InteractionResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("There was an error executing %v", r.command),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

//WriteToLog dumps data on a command response to the log
func (r ResponseInternalError) WriteToLog() {
	logrus.Errorf("%v Error whilst executing command %v: %v", logLineLabel(r.timestamp), r.command, r.err)
}

//ResponseNotAllowed will be returned when a user tried to run a command above their permission level
type ResponseNotAllowed struct {
	//The base command name
	command string
	//The level the command requires
	required int
	//The level of the user
	actual int
	//The time the rejection was logged at
	timestamp time.Time
}

//InteractionResponse builds an ephemeral embed which is sent back to whoever ran the command.
func (r ResponseNotAllowed) InteractionResponse() *discordgo.InteractionResponse {
	return embedResponse(&discordgo.MessageEmbed{
		Title:       "Missing Permissions",
		Description: fmt.Sprintf("Incorrect permission. (%d vs %d)", r.required, r.actual),
		Color:       errorMessageColour,
	}, r.timestamp, nil)
}

//WriteToLog dumps data on a command response to the log
func (r ResponseNotAllowed) WriteToLog() {
	logrus.Infof("%v Rejected command `%v` as the sender did not have the correct permission level (%d vs %d)", logLineLabel(r.timestamp), r.command, r.required, r.actual)
}

/////////////////////
//Utility Functions//
/////////////////////

func embedResponse(embed *discordgo.MessageEmbed, t time.Time, fields map[string]string) *discordgo.InteractionResponse {
	embed.Type = discordgo.EmbedTypeRich
	embed.Timestamp = t.Format(time.RFC3339)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Log ID: %d", t.UnixNano()),
	}
	embed.Fields = stringMapToFields(fields)
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}
}

func logLineLabel(t time.Time) string {
	return fmt.Sprintf("#%v# | ", t.UnixNano())
}

func stringMapToFields(fields map[string]string) []*discordgo.MessageEmbedField {
	names := make([]string, 0, len(fields))
	for fieldName := range fields {
		names = append(names, fieldName)
	}
	sort.Strings(names)
	var res []*discordgo.MessageEmbedField
	for _, fieldName := range names {
		res = append(res, &discordgo.MessageEmbedField{
			Name:   fieldName,
			Value:  fields[fieldName],
			Inline: false,
		})
	}
	return res
}
