/*
Package provision automates the cloud-side setup the SMS sender needs before
the identity platform can invoke it.

Setting the sender up by hand takes half a dozen console steps in the right
order: an execution role trusted by the function service, an inline policy
that permits kms:Decrypt on the code-encryption key plus log delivery, and
the function itself with its environment. The Provisioner performs those
steps idempotently, so rerunning it converges on the same state instead of
failing on the pieces that already exist.

The one thing it never creates is the key. The key belongs to the user pool
setup that encrypts codes with it; ValidateKey only confirms the key exists
and is enabled, and hands back the ARN to scope the policy with.

Deployments target the provided.al2023 runtime on arm64, so the binary must
be built with GOOS=linux GOARCH=arm64 and ships inside the archive as an
executable entry named bootstrap.

The caller's credentials need iam:GetRole, iam:CreateRole, iam:PutRolePolicy,
sts:GetCallerIdentity, kms:DescribeKey, and the lambda:CreateFunction /
lambda:UpdateFunctionCode / lambda:UpdateFunctionConfiguration /
lambda:GetFunctionConfiguration set.
*/
package provision
