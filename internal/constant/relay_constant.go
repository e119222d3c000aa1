package constant

const (
	NoticeUnrecognized     = "You are not paired or recognized."
	NoticeNoExpert         = "No expert available."
	NoticeNoPatient        = "No patient available."
	NoticeAgentErrorFmt    = "Error: %s"
	DocumentNotifyFmt      = "[Discharge Note for %s]:\n%s"
	DocumentUploadedMsgFmt = "Discharge note uploaded for %s"

	AgentSystemPrompt = "You are a helpful medical educator agent. You will generate short and easy to understand chat."
	AgentDocumentFmt  = "Here is the discharge note of the patient:\n\n%s"

	AgentReasonTimeout    = "agent timed out"
	AgentReasonEmptyReply = "agent returned an empty reply"
)
